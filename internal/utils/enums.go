package utils

import "fmt"

// ------------------------------------------------------------------------
// SecondFactorMethod enumerates the supported second-factor mechanisms.
// The set is closed; providers are selected by explicit configuration.
// ------------------------------------------------------------------------
type SecondFactorMethod int

const (
	MethodWebAuthn SecondFactorMethod = iota
	MethodTOTP
	MethodOTPEmail
	MethodOTPSMS
)

func (m SecondFactorMethod) String() string {
	switch m {
	case MethodWebAuthn:
		return "webauthn"
	case MethodTOTP:
		return "totp"
	case MethodOTPEmail:
		return "otp_email"
	case MethodOTPSMS:
		return "otp_sms"
	default:
		return "unknown"
	}
}

// ParseSecondFactorMethod converts strings ("webauthn", "totp", "otp_email",
// "otp_sms") to the enum.
func ParseSecondFactorMethod(s string) (SecondFactorMethod, error) {
	switch s {
	case "webauthn":
		return MethodWebAuthn, nil
	case "totp":
		return MethodTOTP, nil
	case "otp_email":
		return MethodOTPEmail, nil
	case "otp_sms":
		return MethodOTPSMS, nil
	default:
		return -1, fmt.Errorf("invalid second-factor method: %q", s)
	}
}
