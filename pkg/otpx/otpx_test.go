package otpx

import (
	"encoding/base32"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	s1, err := GenerateSecret()
	require.NoError(t, err)
	s2, err := GenerateSecret()
	require.NoError(t, err)

	require.NotEqual(t, s1, s2)

	// Base32 without padding, 20 raw bytes -> 32 chars.
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s1)
	require.NoError(t, err)
	require.Len(t, raw, SecretBytes)
}

func TestEnrollmentURI(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri := EnrollmentURI("alice@example.com", "Minute", secret)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))

	parsed, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "otpauth", parsed.Scheme)
	require.Equal(t, "totp", parsed.Host)
	require.Contains(t, parsed.Path, "Minute:alice@example.com")

	q := parsed.Query()
	require.Equal(t, secret, q.Get("secret"))
	require.Equal(t, "Minute", q.Get("issuer"))
	require.Equal(t, "30", q.Get("period"))
	require.Equal(t, "6", q.Get("digits"))
}

func TestVerifyCodeAt(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Date(2025, 6, 15, 10, 30, 15, 0, time.UTC)

	code, err := GenerateCodeAt(secret, now)
	require.NoError(t, err)
	require.Len(t, code, 6)

	t.Run("valid at its own step with zero tolerance", func(t *testing.T) {
		require.True(t, VerifyCodeAt(code, secret, now, 0))
	})

	t.Run("invalid one period plus a second away with zero tolerance", func(t *testing.T) {
		require.False(t, VerifyCodeAt(code, secret, now.Add((Period+1)*time.Second), 0))
		require.False(t, VerifyCodeAt(code, secret, now.Add(-(Period+1)*time.Second), 0))
	})

	t.Run("tolerance window covers adjacent steps", func(t *testing.T) {
		require.True(t, VerifyCodeAt(code, secret, now.Add(Period*time.Second), Period))
		require.True(t, VerifyCodeAt(code, secret, now.Add(-Period*time.Second), Period))
	})

	t.Run("sub-period tolerance rounds up to one step", func(t *testing.T) {
		require.True(t, VerifyCodeAt(code, secret, now.Add(Period*time.Second), 1))
	})

	t.Run("tolerance does not stretch two steps", func(t *testing.T) {
		require.False(t, VerifyCodeAt(code, secret, now.Add(2*Period*time.Second), Period))
	})
}

func TestVerifyCodeMalformedInputs(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	tests := []struct {
		name   string
		code   string
		secret string
	}{
		{"empty code", "", secret},
		{"short code", "123", secret},
		{"non-numeric code", "abcdef", secret},
		{"empty secret", "123456", ""},
		{"malformed secret", "123456", "not base32 !!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Always false, never a panic or error surfaced to the caller.
			require.False(t, VerifyCode(tt.code, tt.secret, Period))
		})
	}
}
