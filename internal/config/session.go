package config

import (
	"net/http"
	"time"
)

type Cookie struct {
	Name     string `validate:"required"`
	Path     string
	Domain   string
	Persist  bool
	HttpOnly bool
	SameSite http.SameSite
}

type Session struct {
	// Lifetime of a guest session.
	//
	// Default: 336h
	Lifetime time.Duration `validate:"required"`
	Cookie   Cookie
}
