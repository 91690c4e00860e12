// Package cryptox implements password hashing for stored user credentials.
//
// Hashes are argon2id PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt b64>$<hash b64>
//
// The parameters travel with the hash, so raising the cost later does not
// invalidate existing credentials.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var errInvalidHash = errors.New("invalid argon2id hash")

// Params are the argon2id cost parameters used for new hashes.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follow the OWASP baseline for argon2id.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2 hashes and verifies passwords. It satisfies the services
// CredentialVerifier and PasswordHasher contracts.
type Argon2 struct {
	params Params
}

func NewArgon2(p Params) *Argon2 {
	return &Argon2{params: p}
}

// Hash returns the PHC encoding of password under a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	salt, err := common.GenerateRandByteArray(int(a.params.SaltLength))
	if err != nil {
		return "", err
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := argon2.IDKey(pw, salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.params.Memory, a.params.Time, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored PHC string. A malformed
// stored value never matches.
func (a *Argon2) Verify(password, stored string) bool {
	p, salt, want, err := decode(stored)
	if err != nil {
		return false
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	got := argon2.IDKey(pw, salt, p.Time, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decode(stored string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, errInvalidHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, nil, nil, errInvalidHash
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &parallelism); err != nil {
		return p, nil, nil, errInvalidHash
	}
	if p.Memory == 0 || p.Time == 0 || parallelism == 0 || parallelism > 255 {
		return p, nil, nil, errInvalidHash
	}
	p.Parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
