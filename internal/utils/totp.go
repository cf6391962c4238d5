package utils

import (
	"time"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret provisions a new TOTP key for the given issuer/account
// pair and returns the base32 secret.
func GenerateTOTPSecret(appName string, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      appName,
		AccountName: accountName,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func ValidateTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}

// GenerateTOTPCode produces the current code for a secret. Used by tests
// and development tooling, never by the verification path.
func GenerateTOTPCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}
