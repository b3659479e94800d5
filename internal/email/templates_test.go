package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates_Render(t *testing.T) {
	tm, err := NewDefaultTemplateManager()
	require.NoError(t, err)

	out, err := tm.Render(TemplateListingModerated, TemplateData{
		"Name": "Asha", "Title": "HR Coils", "Decision": "rejected", "Reason": "missing mill certificate",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "HR Coils")
	assert.Contains(t, out, "Reason: missing mill certificate")

	out, err = tm.Render(TemplateOfferAccepted, TemplateData{"Name": "Ravi", "Title": "Copper", "Price": 40000})
	require.NoError(t, err)
	assert.Contains(t, out, "40000")
}

func TestTemplateManager_Unknown(t *testing.T) {
	_, err := NewTemplateManager().Render("missing", nil)
	assert.Error(t, err)
}

func TestLogProvider_RendersBeforeLogging(t *testing.T) {
	tm, err := NewDefaultTemplateManager()
	require.NoError(t, err)
	p := NewLogProvider(tm)

	assert.NoError(t, p.SendTemplate(context.Background(), []string{"a@b.c"}, "s", TemplateOfferAccepted, TemplateData{}))
	assert.Error(t, p.SendTemplate(context.Background(), []string{"a@b.c"}, "s", "nope", nil))
}

func TestGomailProvider_Validate(t *testing.T) {
	assert.Error(t, NewGomailProvider(&SMTPConfig{}, nil).Validate())
	assert.NoError(t, NewGomailProvider(&SMTPConfig{Host: "smtp.example.com", Port: 587}, nil).Validate())
}
