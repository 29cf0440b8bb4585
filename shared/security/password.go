package security

import (
	"github.com/matthewhartstonge/argon2"
)

var passwordConfig = argon2.DefaultConfig()

// HashPassword returns the encoded argon2id hash of the password.
func HashPassword(password string) (string, error) {
	encoded, err := passwordConfig.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
