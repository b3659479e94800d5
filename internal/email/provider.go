package email

import "context"

type Provider interface {
	Send(ctx context.Context, email *Email) error

	// SendTemplate renders templateName and sends it as the HTML body.
	SendTemplate(ctx context.Context, to []string, subject string, templateName string, data TemplateData) error

	Validate() error
	Close() error
}

type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
