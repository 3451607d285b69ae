package config

type Log struct {
	// Level is a zerolog level name.
	//
	// Default: info
	Level string `validate:"oneof='trace' 'debug' 'info' 'warn' 'error'"`
	// Pretty switches to the console writer.
	//
	// Default: true in Development
	Pretty bool
}
