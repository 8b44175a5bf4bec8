package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/rewards"
	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

func parseRewardID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "rewardId"))
	rewardID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rewardID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid reward id")
	}
	return rewardID, nil
}

type rewardView struct {
	ID                int64     `json:"id"`
	Amount            int       `json:"amount"`
	EventTitle        string    `json:"event_title"`
	DefaultExpiryDays int       `json:"default_expiry_days"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

func newRewardView(reward *models.Reward) rewardView {
	return rewardView{
		ID:                reward.ID,
		Amount:            reward.Amount,
		EventTitle:        reward.EventTitle,
		DefaultExpiryDays: reward.DefaultExpiryDays,
		Active:            reward.Active,
		CreatedAt:         reward.CreatedAt,
	}
}

type createRewardRequest struct {
	Amount            int    `json:"amount" validate:"required,gt=0"`
	EventTitle        string `json:"event_title" validate:"required"`
	DefaultExpiryDays int    `json:"default_expiry_days" validate:"gte=0"`
}

// AdminRewardCreate adds an award preset admins can pick from.
func AdminRewardCreate(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		var body createRewardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reward, err := svc.Create(r.Context(), rewards.CreateInput{
			Amount:            body.Amount,
			EventTitle:        body.EventTitle,
			DefaultExpiryDays: body.DefaultExpiryDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRewardView(reward))
	}
}

type updateRewardRequest struct {
	Amount            *int    `json:"amount,omitempty"`
	EventTitle        *string `json:"event_title,omitempty"`
	DefaultExpiryDays *int    `json:"default_expiry_days,omitempty"`
	Active            *bool   `json:"active,omitempty"`
}

// AdminRewardUpdate applies a partial update to an award preset.
func AdminRewardUpdate(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := parseRewardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRewardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reward, err := svc.Update(r.Context(), rewardID, rewards.UpdateInput{
			Amount:            body.Amount,
			EventTitle:        body.EventTitle,
			DefaultExpiryDays: body.DefaultExpiryDays,
			Active:            body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRewardView(reward))
	}
}

// AdminRewardDelete removes an award preset.
func AdminRewardDelete(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := parseRewardID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), rewardID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"reward_id": rewardID, "deleted": true})
	}
}

// AdminRewards lists every award preset, newest first.
func AdminRewards(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		presets, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]rewardView, 0, len(presets))
		for i := range presets {
			views = append(views, newRewardView(&presets[i]))
		}
		responses.WriteSuccess(w, map[string]any{"rewards": views})
	}
}
