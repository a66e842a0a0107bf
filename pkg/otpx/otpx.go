// Package otpx wraps TOTP secret generation and code verification for the
// second-factor flows. Codes are 6 digits over 30-second steps (HMAC-SHA1,
// RFC 6238) so any standard authenticator app can be enrolled.
package otpx

import (
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time-step in seconds.
	Period = 30

	// SecretBytes is the raw secret length (160 bits, RFC 4226 minimum).
	SecretBytes = 20
)

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret produces a fresh base32-encoded TOTP secret with 160 bits of
// entropy. The issuer/account metadata on the generated key is discarded; the
// enrollment URI is built separately so the secret can be re-shown on reload.
func GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "minute", // placeholder, URI is built by EnrollmentURI
		AccountName: "minute",
		Period:      Period,
		SecretSize:  SecretBytes,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// EnrollmentURI builds an otpauth://totp/ URI for QR-code rendering.
// Pure string construction, no I/O.
func EnrollmentURI(accountLabel, issuer, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("period", "30")
	q.Set("digits", "6")
	q.Set("algorithm", "SHA1")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + accountLabel,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// VerifyCode reports whether code matches the secret at the current time,
// accepting adjacent time-steps within toleranceSeconds to absorb clock
// drift. Malformed secrets or codes report false, never an error, so callers
// cannot leak a malformed-vs-wrong distinction. Comparison inside the
// library is constant-time.
func VerifyCode(code, secret string, toleranceSeconds uint) bool {
	return VerifyCodeAt(code, secret, time.Now().UTC(), toleranceSeconds)
}

// VerifyCodeAt is VerifyCode against an explicit time, for tests.
func VerifyCodeAt(code, secret string, t time.Time, toleranceSeconds uint) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}

	opts := validateOpts()
	// Whole steps, rounding up: a 1s tolerance still covers adjacent steps.
	opts.Skew = (toleranceSeconds + Period - 1) / Period

	ok, err := totp.ValidateCustom(code, secret, t, opts)
	if err != nil {
		return false
	}
	return ok
}

// GenerateCodeAt derives the 6-digit code for the secret at the given time.
// Test support only; production callers verify, they never generate.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, validateOpts())
}
