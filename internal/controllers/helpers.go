package controllers

import (
	"strings"
	"time"

	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/services"
)

func credentialToDTO(cred *models.WebAuthnCredential) *dtos.CredentialResponse {
	resp := &dtos.CredentialResponse{
		ID:           cred.ID.String(),
		CredentialID: cred.CredentialID,
		Name:         cred.Name,
		Transports:   cred.Transports,
		SignCount:    cred.SignCount,
		CreatedAt:    cred.CreatedAt.Format(time.RFC3339),
	}
	if !cred.LastUsedAt.IsZero() {
		resp.LastUsedAt = cred.LastUsedAt.Format(time.RFC3339)
	}
	return resp
}

func verificationResultToDTO(result *services.VerificationResult) dtos.VerificationResultResponse {
	resp := dtos.VerificationResultResponse{
		Success: result.Success,
		Reason:  string(result.Reason),
	}
	if result.Credential != nil {
		resp.Credential = credentialToDTO(result.Credential)
	}
	return resp
}

// maskDestination hides most of an email address or phone number before it
// leaves the service in an info response.
func maskDestination(dest string) string {
	if dest == "" {
		return ""
	}
	if at := strings.Index(dest, "@"); at > 0 {
		local := dest[:at]
		if len(local) <= 2 {
			return local[:1] + "***" + dest[at:]
		}
		return local[:2] + "***" + dest[at:]
	}
	if len(dest) <= 4 {
		return "***"
	}
	return "***" + dest[len(dest)-4:]
}
