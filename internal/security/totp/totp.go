// Package totp implements RFC 6238 time-based one-time passwords on top of
// github.com/pquerna/otp: SHA1, 30 second steps, 6 digits.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
)

const (
	// SecretSize is the raw secret length in bytes (160 bits, RFC 4226 recommendation).
	SecretSize = 20
	Period     = 30
	// DefaultSkew accepts the previous and the next step to absorb clock drift.
	DefaultSkew = 1
)

var (
	ErrEmptySecret  = errors.New("totp: empty secret")
	ErrBadSecret    = errors.New("totp: secret is not valid base32")
	ErrMissingLabel = errors.New("totp: issuer and account label are required")
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh base32 (no padding) secret.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("totp: read random: %w", err)
	}
	return b32NoPadding.EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps:
//
//	otpauth://totp/<issuer>:<label>?algorithm=SHA1&digits=6&issuer=<issuer>&period=30&secret=<secret>
func ProvisioningURI(accountLabel, issuer, secret string) (string, error) {
	if strings.TrimSpace(accountLabel) == "" || strings.TrimSpace(issuer) == "" {
		return "", ErrMissingLabel
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	key, err := ptotp.Generate(ptotp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountLabel,
		Period:      Period,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("totp: build key: %w", err)
	}
	return key.URL(), nil
}

// Verify reports whether token is valid for secret at t, accepting skew
// steps on each side. Any malformed input is a plain false.
func Verify(token, secret string, t time.Time, skew uint) bool {
	token = strings.TrimSpace(token)
	if token == "" || secret == "" {
		return false
	}
	if _, err := decodeSecret(secret); err != nil {
		return false
	}
	ok, err := ptotp.ValidateCustom(token, normalizeSecret(secret), t.UTC(), validateOpts(skew))
	if err != nil {
		return false
	}
	return ok
}

// Code returns the code for secret at t.
func Code(secret string, t time.Time) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	return ptotp.GenerateCodeCustom(normalizeSecret(secret), t.UTC(), validateOpts(0))
}

func validateOpts(skew uint) ptotp.ValidateOpts {
	return ptotp.ValidateOpts{
		Period:    Period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func normalizeSecret(s string) string {
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(s), "="))
}

func decodeSecret(s string) ([]byte, error) {
	n := normalizeSecret(s)
	if n == "" {
		return nil, ErrEmptySecret
	}
	raw, err := b32NoPadding.DecodeString(n)
	if err != nil || len(raw) == 0 {
		return nil, ErrBadSecret
	}
	return raw, nil
}

// Engine binds the issuer, drift window and clock used by the MFA service.
type Engine struct {
	Issuer string
	Skew   uint
	Now    func() time.Time
}

func NewEngine(issuer string, skew uint) *Engine {
	return &Engine{Issuer: issuer, Skew: skew, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) GenerateSecret() (string, error) { return GenerateSecret() }

func (e *Engine) ProvisioningURI(accountLabel, secret string) (string, error) {
	return ProvisioningURI(accountLabel, e.Issuer, secret)
}

func (e *Engine) Verify(token, secret string) bool {
	return Verify(token, secret, e.now(), e.Skew)
}
