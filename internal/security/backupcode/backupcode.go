// Package backupcode genera códigos de recuperación de un solo uso con el
// formato xxxx-xxxx-xxxx (12 dígitos hex, 48 bits de entropía).
package backupcode

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	DefaultCount = 10
	rawBytes     = 6
	groupLen     = 4
	codeLen      = rawBytes*2 + 2
)

// Generate devuelve n códigos (DefaultCount si n <= 0). No persiste nada.
func Generate(n int) ([]string, error) {
	if n <= 0 {
		n = DefaultCount
	}
	out := make([]string, 0, n)
	buf := make([]byte, rawBytes)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("backupcode: read random: %w", err)
		}
		out = append(out, format(hex.EncodeToString(buf)))
	}
	return out, nil
}

func format(h string) string {
	var b strings.Builder
	b.Grow(codeLen)
	for i := 0; i < len(h); i += groupLen {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(h[i : i+groupLen])
	}
	return b.String()
}

// Normalize limpia el input del usuario antes de comparar.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// LooksLikeBackupCode chequea la forma xxxx-xxxx-xxxx (hex) sobre el input ya normalizado.
func LooksLikeBackupCode(s string) bool {
	if len(s) != codeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 4 || i == 9 {
			if c != '-' {
				return false
			}
			continue
		}
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
