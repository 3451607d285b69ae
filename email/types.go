package email

// SendGrid v3 mail send body, limited to the fields the mailer fills
// Reference: https://github.com/sendgrid/sendgrid-go/blob/main/helpers/mail/mail_v3.go
//

// Email stores a person's name and email information
type Email struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Payload is the request body of /v3/mail/send
type Payload struct {
	From             Email              `json:"from"`
	Subject          string             `json:"subject,omitempty"`
	Personalizations []*Personalization `json:"personalizations,omitempty"`
	TemplateID       string             `json:"template_id,omitempty"`
	CustomArgs       map[string]string  `json:"custom_args,omitempty"`
	ReplyTo          *Email             `json:"reply_to,omitempty"`
}

// Personalization holds recipients and the data of the dynamic template
type Personalization struct {
	To                  []*Email               `json:"to,omitempty"`
	CC                  []*Email               `json:"cc,omitempty"`
	BCC                 []*Email               `json:"bcc,omitempty"`
	Subject             string                 `json:"subject,omitempty"`
	DynamicTemplateData map[string]interface{} `json:"dynamic_template_data,omitempty"`
}
