package config

// Argon holds the argon2id parameters used to hash account passwords
type Argon struct {
	Memory      uint32 `validate:"required"`
	Iterations  uint32 `validate:"required"`
	Parallelism uint8  `validate:"required"`
	SaltLength  uint32 `validate:"required"`
	KeyLength   uint32 `validate:"required"`
}

type Credential struct {
	// MinimumScore is the lowest zxcvbn score a password may have.
	//
	// Default: 2
	MinimumScore int `validate:"min=0,max=4"`
	Argon        Argon
}
