package config

import "time"

type Redis struct {
	// Address of the redis server.
	//
	// Example: localhost:6379
	//
	// Cache and sessions stay in memory when empty
	Address  string
	Password string
	// Database index.
	//
	// Default: 0
	Database int
	// MaxIdle connections in the pool.
	//
	// Default: 10
	MaxIdle int
	// IdleTimeout closes connections that sat idle for this long.
	//
	// Default: 240s
	IdleTimeout time.Duration
	// CacheTTL is how long cached lookups live.
	//
	// Default: 10m
	CacheTTL time.Duration
}
