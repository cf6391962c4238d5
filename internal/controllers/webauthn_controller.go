// internal/controllers/webauthn_controller.go
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/services"
	"github.com/poofware/mfa-service/internal/utils"
)

type WebAuthnController struct {
	webauthnService services.WebAuthnService
}

func NewWebAuthnController(webauthnService services.WebAuthnService) *WebAuthnController {
	return &WebAuthnController{webauthnService: webauthnService}
}

var webauthnValidate = validator.New()

// ---------------------------------------------------------------------
// Registration ceremony
// ---------------------------------------------------------------------

func (c *WebAuthnController) RegistrationOptions(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegistrationOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := webauthnValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid registration options request", nil, err,
		)
		return
	}

	options, err := c.webauthnService.GenerateRegistrationOptions(r.Context(), req)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to generate registration options", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, options)
}

func (c *WebAuthnController) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := webauthnValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid registration response", nil, err,
		)
		return
	}

	result, err := c.webauthnService.VerifyRegistration(r.Context(), req)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Registration verification failed", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, verificationResultToDTO(result))
}

// ---------------------------------------------------------------------
// Authentication ceremony
// ---------------------------------------------------------------------

func (c *WebAuthnController) AuthenticationOptions(w http.ResponseWriter, r *http.Request) {
	var req dtos.AuthenticationOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}

	options, err := c.webauthnService.GenerateAuthenticationOptions(r.Context(), req.UserID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to generate authentication options", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, options)
}

func (c *WebAuthnController) VerifyAuthentication(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyAuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := webauthnValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid authentication response", nil, err,
		)
		return
	}

	result, err := c.webauthnService.VerifyAuthentication(r.Context(), req)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Authentication verification failed", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, verificationResultToDTO(result))
}

// ---------------------------------------------------------------------
// Credential management
// ---------------------------------------------------------------------

func (c *WebAuthnController) ListCredentials(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "user id is required", nil,
		)
		return
	}

	creds, err := c.webauthnService.ListCredentials(r.Context(), userID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to list credentials", nil, err,
		)
		return
	}

	resp := make([]*dtos.CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		resp = append(resp, credentialToDTO(cred))
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *WebAuthnController) RemoveCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	credentialID := vars["credentialID"]
	if userID == "" || credentialID == "" {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "user id and credential id are required", nil,
		)
		return
	}

	if err := c.webauthnService.RemoveCredential(r.Context(), userID, credentialID); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Credential not found", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
