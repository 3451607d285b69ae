package config

import "time"

type Jobs struct {
	// MaxRetries for transactional jobs.
	//
	// Default: 3
	MaxRetries int `validate:"min=0"`
	// RetryDelay is the fixed delay between attempts.
	//
	// Default: 5s
	RetryDelay time.Duration
	// Timeout of a single attempt.
	//
	// Default: 30s
	Timeout time.Duration `validate:"required"`
	// Concurrency is the number of jobs a worker runs at once.
	//
	// Default: 8
	Concurrency int `validate:"min=1"`
	// AttachmentCleanupInterval schedules delete_marked_attachments.
	//
	// Default: 1h
	AttachmentCleanupInterval time.Duration `validate:"required"`
	// TokenCleanupInterval schedules cleanup_tokens.
	//
	// Default: 24h
	TokenCleanupInterval time.Duration `validate:"required"`
}
