package email

import (
	"context"

	"metalhub_backend/internal/logger"
)

// LogProvider writes messages to the log instead of sending them. Used when
// SMTP is not configured.
type LogProvider struct {
	renderer TemplateRenderer
}

func NewLogProvider(renderer TemplateRenderer) *LogProvider {
	return &LogProvider{renderer: renderer}
}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	logger.CtxInfo(ctx, "email (not sent)", "to", email.To, "subject", email.Subject)
	return nil
}

func (p *LogProvider) SendTemplate(ctx context.Context, to []string, subject string, templateName string, data TemplateData) error {
	if p.renderer != nil {
		if _, err := p.renderer.Render(templateName, data); err != nil {
			return err
		}
	}
	return p.Send(ctx, &Email{To: to, Subject: subject})
}

func (p *LogProvider) Validate() error { return nil }

func (p *LogProvider) Close() error { return nil }
