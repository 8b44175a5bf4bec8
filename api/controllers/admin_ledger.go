package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/ledger"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	return currentUserID(r)
}

type awardRequest struct {
	UserID       uuid.UUID  `json:"user_id" validate:"required"`
	Amount       int        `json:"amount" validate:"required,gt=0"`
	Description  string     `json:"description" validate:"required"`
	Observations *string    `json:"observations,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// AdminAwardTokens credits tokens to a user on behalf of the acting admin.
func AdminAwardTokens(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body awardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.UserID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id is required"))
			return
		}

		tx, err := svc.Grant(r.Context(), ledger.GrantInput{
			UserID:       body.UserID,
			Amount:       body.Amount,
			Type:         enums.TransactionTypeAdminAward,
			Description:  body.Description,
			Observations: body.Observations,
			ExpiresAt:    body.ExpiresAt,
			CreatedBy:    &actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionView(tx))
	}
}

type refundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminRefundTransaction reverses a ledger entry and records who did it.
func AdminRefundTransaction(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawTxID := strings.TrimSpace(chi.URLParam(r, "transactionId"))
		txID, err := strconv.ParseInt(rawTxID, 10, 64)
		if err != nil || txID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id"))
			return
		}

		var body refundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reversal, err := svc.Refund(r.Context(), ledger.RefundInput{
			TransactionID: txID,
			ActorID:       actor,
			Reason:        body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionView(reversal))
	}
}

func transactionFilterFromQuery(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter

	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id filter")
		}
		filter.UserID = &userID
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			txType, err := enums.ParseTransactionType(strings.TrimSpace(part))
			if err != nil {
				return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
			}
			filter.Types = append(filter.Types, txType)
		}
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	for _, flag := range []struct {
		key  string
		dest **bool
	}{
		{"refunded", &filter.Refunded},
		{"expired", &filter.Expired},
	} {
		raw := strings.TrimSpace(r.URL.Query().Get(flag.key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+flag.key+" filter")
		}
		*flag.dest = &value
	}

	for _, bound := range []struct {
		key  string
		dest **int
	}{
		{"amount_min", &filter.AmountMin},
		{"amount_max", &filter.AmountMax},
	} {
		raw := strings.TrimSpace(r.URL.Query().Get(bound.key))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+bound.key+" filter")
		}
		*bound.dest = &value
	}
	if filter.AmountMin != nil && filter.AmountMax != nil && *filter.AmountMin > *filter.AmountMax {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "amount_min cannot exceed amount_max")
	}

	page, err := pageFromQuery(r)
	if err != nil {
		return filter, err
	}
	filter.Pagination = page

	return filter, nil
}

// AdminTransactions returns a filtered, paginated view over the whole ledger.
func AdminTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		filter, err := transactionFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, total, err := svc.ListAll(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": newTransactionViews(entries),
			"total":        total,
			"limit":        filter.Pagination.Limit,
			"offset":       filter.Pagination.Offset,
		})
	}
}

type ledgerTotalsRepository interface {
	TotalsByType(ctx context.Context) (map[enums.TransactionType]int64, error)
}

type userCounter interface {
	Count(ctx context.Context) (int64, error)
}

// AdminStats returns platform-wide ledger totals and the registered user count.
func AdminStats(totals ledgerTotalsRepository, users userCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if totals == nil || users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats dependencies unavailable"))
			return
		}

		byType, err := totals.TotalsByType(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ledger totals"))
			return
		}
		userCount, err := users.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"tokens_by_type": byType,
			"user_count":     userCount,
		})
	}
}
