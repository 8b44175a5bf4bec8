package controllers

import (
	"net/http"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/internal/orders"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

// AdminOrders lists every recorded purchase, newest first.
func AdminOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.ListAll(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders": newOrderViews(list),
			"total":  total,
			"limit":  page.Limit,
			"offset": page.Offset,
		})
	}
}
