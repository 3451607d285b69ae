package config

import "time"

type SendGrid struct {
	// APIKey of the account. Emails are only logged when empty
	APIKey      string
	SenderName  string `validate:"required_with=APIKey"`
	SenderEmail string `validate:"required_with=APIKey,omitempty,email"`
	// Host of the API.
	//
	// Default: https://api.sendgrid.com
	Host string `validate:"required,url"`
	// Timeout for a single send.
	//
	// Default: 10s
	Timeout time.Duration
	// Templates maps template names used by the app to SendGrid dynamic
	// template ids
	Templates map[string]string
}
