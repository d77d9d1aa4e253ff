package common

import (
	"crypto/rand"
	"math/big"
)

const (
	MinSecretLength     = 8
	MaxSecretLength     = 64
	DefaultSecretLength = 24

	alnumCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	symbolCharset = "!@#$%^&*()_+~`|}{[]:;?><,./-="
)

// GenerateSecret returns a random secret drawn from letters, digits and,
// when symbols is true, punctuation. The length is clamped to
// [MinSecretLength, MaxSecretLength]; zero selects DefaultSecretLength.
func GenerateSecret(length int, symbols bool) (string, error) {
	if length == 0 {
		length = DefaultSecretLength
	}
	length = min(max(length, MinSecretLength), MaxSecretLength)

	charset := alnumCharset
	if symbols {
		charset += symbolCharset
	}
	limit := big.NewInt(int64(len(charset)))

	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
