package domain

// MFAState is the enrollment state of a user's second factor.
type MFAState string

const (
	MFANotSetup     MFAState = "NOT_SETUP"     // no secret stored
	MFASetupPending MFAState = "SETUP_PENDING" // secret stored, not yet activated
	MFAVerified     MFAState = "VERIFIED"      // secret activated, required at login
)

// MFAStateOf derives the state from the user record.
func MFAStateOf(u User) MFAState {
	switch {
	case u.MFASecret == nil || *u.MFASecret == "":
		return MFANotSetup
	case u.MFAEnabledAt == nil:
		return MFASetupPending
	default:
		return MFAVerified
	}
}

// MFAEnrollResponse is returned by enrollment so the caller can render a QR
// code. The secret is shown again on reload until activation succeeds.
type MFAEnrollResponse struct {
	Secret  string `json:"secret"`
	URI     string `json:"uri"` // otpauth:// URL for QR code generation
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// LoginResult is what a successful password check yields: either a full
// session or a partial token that must be exchanged at MFA-validate.
type LoginResult struct {
	Token       string      `json:"token"`
	MFARequired bool        `json:"mfa_required"`
	User        UserSummary `json:"user"`
}
