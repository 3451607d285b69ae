package config

import "time"

type Storage struct {
	// Root directory files are written to.
	//
	// Default: ./uploads
	Root string `validate:"required"`
	// BaseURL files are served from.
	//
	// Example: https://cdn.bloom.shop/files
	BaseURL string `validate:"required,url"`
	// Secret signs presigned URLs.
	Secret string `validate:"required,min=16"`
	// MaxUploadSize in bytes.
	//
	// Default: 10MiB
	MaxUploadSize int64 `validate:"min=1"`
	// PresignTTL is the default lifetime of presigned URLs.
	//
	// Default: 15m
	PresignTTL time.Duration
	// AllowedContentTypes that may be uploaded.
	AllowedContentTypes []string
}
