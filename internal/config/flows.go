package config

import "time"

type Verification struct {
	// URL for flow
	//
	// Default: verification
	URL string `validate:"required"`
	// Lifetime of the emailed link
	//
	// Default: 24h
	Lifetime time.Duration `validate:"required"`
}

type Recovery struct {
	// URL for flow
	//
	// Default: recovery
	URL string `validate:"required"`
	// Lifetime of the emailed link
	//
	// Default: 30m
	Lifetime time.Duration `validate:"required"`
}
