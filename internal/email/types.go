package email

// Email is a single outgoing message. HTMLBody wins over Body when both are set.
type Email struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData is passed to TemplateRenderer.Render.
type TemplateData map[string]interface{}
