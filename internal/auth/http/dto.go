package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Request schemas are explicit types validated at the boundary; handlers
// never pull loose fields out of maps.

const (
	maxBodyBytes      = 64 << 10
	minPasswordLength = 8
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type MFAValidateRequest struct {
	// MFAToken is the partial token from the first login phase. May instead
	// be supplied as a bearer token.
	MFAToken string `json:"mfa_token"`
	Code     string `json:"code"`
}

func (r *MFAValidateRequest) Validate() error {
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type MFAActivateRequest struct {
	Code string `json:"code"`
}

func (r *MFAActivateRequest) Validate() error {
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *PasswordResetRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

type PasswordResetCompleteRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *PasswordResetCompleteRequest) Validate() error {
	if r.Token == "" {
		return errors.New("token is required")
	}
	if len(r.NewPassword) < minPasswordLength {
		return errors.New("new_password must be at least 8 characters")
	}
	return nil
}

type validator interface {
	Validate() error
}

// decodeJSON parses and validates a request body. Unknown fields are
// rejected so schema drift surfaces as a 400, not silent data loss.
func decodeJSON(r *http.Request, dst validator) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed request body")
	}
	return dst.Validate()
}
