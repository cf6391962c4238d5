package dtos

// DTOs for the generic second-factor endpoints. The method string selects
// among the configured providers: "webauthn", "totp", "otp_email", "otp_sms".

type SetupSecondFactorRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Method string `json:"method" validate:"required,oneof=webauthn totp otp_email otp_sms"`
	// Destination is the email address or E.164 phone number for the OTP
	// methods; ignored for webauthn and totp.
	Destination string `json:"destination" validate:"omitempty"`
}

type SetupSecondFactorResponse struct {
	Method string `json:"method"`
	// TOTPSecret is returned once, at setup time, for the totp method.
	TOTPSecret string `json:"totp_secret,omitempty"`
	// Delivered is true when a code was sent to the destination.
	Delivered bool `json:"delivered,omitempty"`
}

type VerifySecondFactorRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Method string `json:"method" validate:"required,oneof=totp otp_email otp_sms"`
	Code   string `json:"code" validate:"required"`
}

type SecondFactorResultResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

type SecondFactorInfoResponse struct {
	UserID    string `json:"user_id"`
	Method    string `json:"method"`
	Enabled   bool   `json:"enabled"`
	EnabledAt string `json:"enabled_at,omitempty"`
	// Destination is partially masked for OTP methods.
	Destination string `json:"destination,omitempty"`
}

type DisableSecondFactorRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
