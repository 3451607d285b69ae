package config

import (
	"fmt"
	"time"

	"github.com/unrolled/secure"
)

type AccessControl struct {
	AllowCredentials bool
	AllowOrigin      string
	AllowHeaders     []string
	AllowMethods     []string
	ExposeHeaders    []string
	RequestHeaders   []string
	RequestMethod    []string
	MaxAge           time.Duration
}

type Server struct {
	// Base configurations
	//

	// Port of the server.
	//
	// Default: 80
	Port int
	// Host of the server.
	//
	// Default: :
	Host string
	// Scheme
	//
	// Default: http
	Scheme string `validate:"oneof='http' 'https'"`
	// URL is the public url which clients will use to access API
	//
	// Example: api.bloom.shop
	URL string `validate:"required"`

	// Route configurations
	//

	// Prefix for the endpoints.
	//
	// Example: v1
	// Default: ""
	Prefix string
	// ReadTimeout bounds how long a request may take to be read.
	//
	// Default: 15s
	ReadTimeout time.Duration
	// ShutdownTimeout is how long in-flight requests get on shutdown.
	//
	// Default: 5s
	ShutdownTimeout time.Duration

	// Middleware configurations
	//

	// RPS is rate per second. If 0, RateLimiterMiddleware will be disabled.
	//
	// Default: 100
	RPS int
	// Security are the options that controls the security middleware. See
	// github.com/unrolled/secure for every option. In Production the HSTS,
	// frame and sniffing headers are forced on.
	Security secure.Options
	// AccessControl are the CORS headers sent with every response.
	AccessControl AccessControl

	// Misc configurations
	//

	// ExtraSlash appends a slash at the end of the URL if set to true
	//
	// Default: False
	ExtraSlash bool
}

func setupServer(conf *Configuration) {
	s := conf.Server
	se := s.Security
	se.IsDevelopment = conf.Environment != Production

	if conf.Environment == Production {
		if s.RPS == 0 {
			s.RPS = 100
		}
		s.Scheme = "https"
		if s.AccessControl.MaxAge == 0 {
			s.AccessControl.MaxAge = 24 * time.Hour
		}
		se.FrameDeny = true
		se.SSLRedirect = true
		se.STSSeconds = 315360000
		se.BrowserXssFilter = true
		se.ContentTypeNosniff = true
		se.ReferrerPolicy = "same-origin"
	}
	s.URL = fmt.Sprintf("%s://%s", s.Scheme, s.URL)

	s.Security = se
	conf.Server = s
}
