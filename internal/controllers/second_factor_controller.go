// internal/controllers/second_factor_controller.go
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/services"
	"github.com/poofware/mfa-service/internal/utils"
)

// SecondFactorController exposes the generic second-factor surface. Every
// handler resolves the provider for the requested method through the
// registry; methods not enabled by configuration are rejected.
type SecondFactorController struct {
	registry *services.SecondFactorRegistry
}

func NewSecondFactorController(registry *services.SecondFactorRegistry) *SecondFactorController {
	return &SecondFactorController{registry: registry}
}

var secondFactorValidate = validator.New()

func (c *SecondFactorController) provider(w http.ResponseWriter, method string) (services.SecondFactorProvider, bool) {
	m, err := utils.ParseSecondFactorMethod(method)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown second-factor method", nil, err,
		)
		return nil, false
	}
	p, err := c.registry.Provider(m)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Second-factor method is not enabled", nil, err,
		)
		return nil, false
	}
	return p, true
}

// respondProviderError maps the service sentinels onto HTTP codes.
func respondProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrRateLimitExceeded):
		utils.RespondErrorWithCode(
			w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many requests. Please try again later.", nil,
		)
	case errors.Is(err, utils.ErrAlreadyEnrolled):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeAlreadyEnrolled, "Second factor is already enabled", nil,
		)
	case errors.Is(err, utils.ErrNotEnrolled):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotEnrolled, "Second factor is not enabled", nil,
		)
	case errors.Is(err, utils.ErrUnsupportedForMethod):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Operation is not supported for this method", nil,
		)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure, "Failed to deliver code", nil, err,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
	}
}

// ---------------------------------------------------------------------
// Setup / VerifySetup
// ---------------------------------------------------------------------

func (c *SecondFactorController) Setup(w http.ResponseWriter, r *http.Request) {
	var req dtos.SetupSecondFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := secondFactorValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid setup request", nil, err,
		)
		return
	}

	p, ok := c.provider(w, req.Method)
	if !ok {
		return
	}

	resp, err := p.Setup(r.Context(), req)
	if err != nil {
		respondProviderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *SecondFactorController) VerifySetup(w http.ResponseWriter, r *http.Request) {
	c.verify(w, r, func(p services.SecondFactorProvider, req dtos.VerifySecondFactorRequest) (*services.SecondFactorOutcome, error) {
		return p.VerifySetup(r.Context(), req.UserID, req.Code)
	})
}

// ---------------------------------------------------------------------
// Login code request / verification
// ---------------------------------------------------------------------

func (c *SecondFactorController) RequestLoginCode(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifySecondFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if req.UserID == "" || req.Method == "" {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "user_id and method are required", nil,
		)
		return
	}

	p, ok := c.provider(w, req.Method)
	if !ok {
		return
	}

	if err := p.RequestLoginCode(r.Context(), req.UserID); err != nil {
		respondProviderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (c *SecondFactorController) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	c.verify(w, r, func(p services.SecondFactorProvider, req dtos.VerifySecondFactorRequest) (*services.SecondFactorOutcome, error) {
		return p.VerifyLogin(r.Context(), req.UserID, req.Code)
	})
}

func (c *SecondFactorController) verify(
	w http.ResponseWriter,
	r *http.Request,
	do func(services.SecondFactorProvider, dtos.VerifySecondFactorRequest) (*services.SecondFactorOutcome, error),
) {
	var req dtos.VerifySecondFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := secondFactorValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid verification request", nil, err,
		)
		return
	}

	p, ok := c.provider(w, req.Method)
	if !ok {
		return
	}

	outcome, err := do(p, req)
	if err != nil {
		respondProviderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SecondFactorResultResponse{
		Success: outcome.Success,
		Reason:  string(outcome.Reason),
	})
}

// ---------------------------------------------------------------------
// Info / Disable
// ---------------------------------------------------------------------

func (c *SecondFactorController) GetInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	method := vars["method"]
	userID := vars["userID"]

	p, ok := c.provider(w, method)
	if !ok {
		return
	}

	enrollment, err := p.GetInfo(r.Context(), userID)
	if err != nil {
		respondProviderError(w, err)
		return
	}

	resp := dtos.SecondFactorInfoResponse{
		UserID: userID,
		Method: method,
	}
	if enrollment != nil && !enrollment.EnabledAt.IsZero() {
		resp.Enabled = true
		resp.EnabledAt = enrollment.EnabledAt.Format(time.RFC3339)
		resp.Destination = maskDestination(enrollment.Destination)
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *SecondFactorController) Disable(w http.ResponseWriter, r *http.Request) {
	method := mux.Vars(r)["method"]

	var req dtos.DisableSecondFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := secondFactorValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid disable request", nil, err,
		)
		return
	}

	p, ok := c.provider(w, method)
	if !ok {
		return
	}

	if err := p.Disable(r.Context(), req.UserID); err != nil {
		respondProviderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}
