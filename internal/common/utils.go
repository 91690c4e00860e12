package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes read from the system CSPRNG.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used for plaintext passwords once they have been hashed or verified.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
