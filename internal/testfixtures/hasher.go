package testfixtures

import "github.com/example/study-portal/internal/application"

// cheapArgon2Params keeps logins in integration tests fast while still going
// through the Argon2id encoder.
var cheapArgon2Params = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// NewCheapHasher returns a hasher whose output is a valid PHC string but costs
// a fraction of the production parameters.
func NewCheapHasher() *application.Argon2Hasher {
	return application.NewArgon2Hasher(cheapArgon2Params, 2)
}
