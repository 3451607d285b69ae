package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
)

// Template names understood by every Mailer
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateNotification      = "notification"
	TemplateKYCReviewed       = "kyc_reviewed"
	TemplateVerification      = "verification"
	TemplateRecovery          = "recovery"
)

// Request describes one message. Template names are mapped to provider
// templates by the mailer
type Request struct {
	Template string                 `json:"template" validate:"required"`
	Context  map[string]interface{} `json:"context,omitempty"`
	To       []string               `json:"to" validate:"required,min=1,dive,email"`
	CC       []string               `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC      []string               `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	ReplyTo  string                 `json:"reply_to,omitempty" validate:"omitempty,email"`
	Subject  string                 `json:"subject" validate:"required"`
	// MessageID is echoed back in the response and lets retries be traced
	MessageID string `json:"message_id,omitempty"`
}

type Response struct {
	Provider   string `json:"provider"`
	MessageID  string `json:"message_id,omitempty"`
	StatusCode int    `json:"status_code"`
}

// Mailer sends email. Every failure is returned as *Error
type Mailer interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

type sendGrid struct {
	cfg config.SendGrid
	app string
	log zerolog.Logger
}

func NewSendGrid(cfg config.Configuration, log zerolog.Logger) Mailer {
	return &sendGrid{
		cfg: cfg.SendGrid,
		app: cfg.Name,
		log: log,
	}
}

func (s *sendGrid) payload(req Request) (*Payload, error) {
	if err := validate.Check(req); err != nil {
		return nil, newError(KindInvalidRecipient, err, "invalid request")
	}
	templateID, ok := s.cfg.Templates[req.Template]
	if !ok || templateID == "" {
		return nil, newError(KindTemplate, nil, "template %q is not configured", req.Template)
	}

	data := map[string]interface{}{
		"ApplicationName": s.app,
		"Subject":         req.Subject,
	}
	for k, v := range req.Context {
		data[k] = v
	}
	personalization := &Personalization{
		To:                  addresses(req.To),
		CC:                  addresses(req.CC),
		BCC:                 addresses(req.BCC),
		Subject:             req.Subject,
		DynamicTemplateData: data,
	}
	pay := &Payload{
		From: Email{
			Name:  s.cfg.SenderName,
			Email: s.cfg.SenderEmail,
		},
		Subject:          req.Subject,
		TemplateID:       templateID,
		Personalizations: []*Personalization{personalization},
	}
	if req.ReplyTo != "" {
		pay.ReplyTo = &Email{Email: req.ReplyTo}
	}
	if req.MessageID != "" {
		pay.CustomArgs = map[string]string{"message_id": req.MessageID}
	}
	return pay, nil
}

func (s *sendGrid) Send(ctx context.Context, req Request) (*Response, error) {
	pay, err := s.payload(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(pay)
	if err != nil {
		return nil, newError(KindTemplate, err, "failed to encode template data")
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	request := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.Host)
	request.Method = "POST"
	request.Body = body

	start := time.Now()
	res, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return nil, classify(err)
	}
	if merr := classifyStatus(res.StatusCode, res.Body); merr != nil {
		return nil, merr
	}

	messageID := req.MessageID
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	s.log.Debug().Str("template", req.Template).Int("recipients", len(req.To)).Dur("elapsed", time.Since(start)).Msg("email sent")
	return &Response{
		Provider:   "sendgrid",
		MessageID:  messageID,
		StatusCode: res.StatusCode,
	}, nil
}

func addresses(in []string) []*Email {
	if len(in) == 0 {
		return nil
	}
	out := make([]*Email, 0, len(in))
	for _, e := range in {
		out = append(out, &Email{Email: e})
	}
	return out
}

type logMailer struct {
	log zerolog.Logger
}

// NewLog returns a Mailer that only logs messages. Used in development when
// no API key is configured
func NewLog(log zerolog.Logger) Mailer {
	return &logMailer{log: log}
}

func (l *logMailer) Send(ctx context.Context, req Request) (*Response, error) {
	if err := validate.Check(req); err != nil {
		return nil, newError(KindInvalidRecipient, err, "invalid request")
	}
	l.log.Info().Str("template", req.Template).Strs("to", req.To).Str("subject", req.Subject).Msg("email not sent, logging only")
	return &Response{
		Provider:   "log",
		MessageID:  req.MessageID,
		StatusCode: 202,
	}, nil
}

// String renders a request for logs without its template data
func (r Request) String() string {
	return fmt.Sprintf("%s to %v", r.Template, r.To)
}
