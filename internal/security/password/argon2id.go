package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrEmpty = errors.New("password: empty")

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32, SaltLen: 16}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	if p.SaltLen == 0 {
		p.SaltLen = Default.SaltLen
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara en tiempo constante. Un hash mal formado es simplemente false.
func Verify(plain, phc string) bool {
	ph, salt, dkStored, ok := decode(phc)
	if !ok || plain == "" {
		return false
	}
	key := argon2.IDKey([]byte(plain), salt, ph.Time, ph.Memory, ph.Parallelism, uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}

// NeedsRehash indica si el hash fue generado con parámetros distintos a p.
func NeedsRehash(p Params, phc string) bool {
	ph, _, dk, ok := decode(phc)
	if !ok {
		return true
	}
	return ph.Memory != p.Memory || ph.Time != p.Time || ph.Parallelism != p.Parallelism || uint32(len(dk)) != p.KeyLen
}

func decode(phc string) (Params, []byte, []byte, bool) {
	var v int
	var m, t, par int
	var saltB64, dkB64 string
	// Sscanf con %s corta en espacios, no en '$': reemplazamos antes de escanear.
	n, _ := fmt.Sscanf(dollarsToSpaces(phc), " argon2id v=%d m=%d,t=%d,p=%d %s %s", &v, &m, &t, &par, &saltB64, &dkB64)
	if n != 6 || v != argon2.Version || m <= 0 || t <= 0 || par <= 0 || par > 255 {
		return Params{}, nil, nil, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return Params{}, nil, nil, false
	}
	dk, err := base64.RawStdEncoding.DecodeString(dkB64)
	if err != nil || len(dk) == 0 {
		return Params{}, nil, nil, false
	}
	return Params{Memory: uint32(m), Time: uint32(t), Parallelism: uint8(par)}, salt, dk, true
}

func dollarsToSpaces(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '$' {
			b[i] = ' '
		}
	}
	return string(b)
}
