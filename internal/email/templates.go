package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const (
	TemplateListingModerated = "listing_moderated"
	TemplateOfferAccepted    = "offer_accepted"
)

var builtinTemplates = map[string]string{
	TemplateListingModerated: `<p>Hello {{.Name}},</p>
<p>Your listing <b>{{.Title}}</b> was {{.Decision}} by the MetalHub moderation team.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,
	TemplateOfferAccepted: `<p>Hello {{.Name}},</p>
<p>Your offer of {{.Price}} on <b>{{.Title}}</b> was accepted. Open the chat to arrange delivery.</p>`,
}

// TemplateManager is a concurrency-safe TemplateRenderer.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]*template.Template),
	}
}

// NewDefaultTemplateManager returns a manager preloaded with the notification templates.
func NewDefaultTemplateManager() (*TemplateManager, error) {
	tm := NewTemplateManager()
	for name, body := range builtinTemplates {
		if err := tm.AddTemplate(name, body); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}
