// Package password hashes and verifies account passwords with argon2id.
//
// Hashes are stored in the PHC string format
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>
//
// with unpadded standard base64 salt and key, so the cost parameters travel
// with every hash and can be raised without invalidating existing accounts.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
)

// Params are the argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams follow the argon2 crate defaults (19 MiB, 2 passes, 1 lane).
var DefaultParams = Params{Memory: 19 * 1024, Iterations: 2, Parallelism: 1}

var errMalformed = errors.New("malformed password hash")

// Hasher produces and checks argon2id password hashes.
type Hasher struct {
	params Params
	dummy  string
}

// NewHasher returns a Hasher using p for new hashes. Zero fields fall back to
// DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultParams.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultParams.Parallelism
	}

	h := &Hasher{params: p}
	h.dummy = h.encode(common.GenerateRandByteArray(saltLen), make([]byte, keyLen))
	return h
}

// Hash derives a fresh hash of plaintext with a random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	salt := common.GenerateRandByteArray(saltLen)
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, keyLen)
	defer common.WipeByteArray(key)
	return h.encode(salt, key), nil
}

// Verify reports whether plaintext matches encoded. Any malformed or
// unsupported encoding yields false.
func (h *Hasher) Verify(plaintext, encoded string) bool {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(key)))
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// NeedsRehash reports whether encoded was produced with parameters other than
// the hasher's current ones. Malformed input also needs a rehash.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, key, err := decode(encoded)
	if err != nil {
		return true
	}
	return p != h.params || len(key) != keyLen
}

// DummyVerify performs one verification against a throwaway hash. Login calls
// it for unknown usernames so they take as long as a wrong password.
func (h *Hasher) DummyVerify(plaintext string) {
	_ = h.Verify(plaintext, h.dummy)
}

func (h *Hasher) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformed
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &parallelism); err != nil {
		return p, nil, nil, errMalformed
	}
	if p.Memory == 0 || p.Iterations == 0 || parallelism == 0 || parallelism > 255 {
		return p, nil, nil, errMalformed
	}
	p.Parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformed
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformed
	}

	return p, salt, key, nil
}
