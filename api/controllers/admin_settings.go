package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/settings"
	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

type settingView struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newSettingView(s *models.Setting) *settingView {
	if s == nil {
		return nil
	}
	return &settingView{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

// AdminSettingsList returns every runtime setting.
func AdminSettingsList(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]settingView, 0, len(rows))
		for i := range rows {
			views = append(views, *newSettingView(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"settings": views})
	}
}

type settingUpdateRequest struct {
	Value string `json:"value" validate:"required"`
}

// AdminSettingsUpdate changes one runtime setting. Ledger defaults pick up
// the new value on the next operation, no restart needed.
func AdminSettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		key := strings.TrimSpace(chi.URLParam(r, "key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "setting key is required"))
			return
		}

		var body settingUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), key, strings.TrimSpace(body.Value))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSettingView(updated))
	}
}
