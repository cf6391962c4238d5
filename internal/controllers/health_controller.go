package controllers

import (
	"net/http"

	"github.com/poofware/mfa-service/internal/app"
	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{
		app: app,
	}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	// Check store connectivity
	if err := c.app.Ping(r.Context()); err != nil {
		utils.Logger.WithError(err).Error("Store unreachable")
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeInternal,
			"Store unreachable",
			nil,
			err,
		)
		return
	}

	resp := dtos.HealthCheckResponse{
		Status: "OK",
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
