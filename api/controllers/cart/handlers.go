package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lunaplata/joyeria-backend/api/middleware"
	"github.com/lunaplata/joyeria-backend/api/responses"
	"github.com/lunaplata/joyeria-backend/api/validators"
	cartsvc "github.com/lunaplata/joyeria-backend/internal/cart"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

// CartGet returns the caller's cart with totals.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.GetCart(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem merges into an existing line when the product and
// customization match, otherwise creates a line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := svc.AddItem(r.Context(), ownerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartDecreaseItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return lineAction(logg, svc.DecreaseItem)
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return lineAction(logg, svc.RemoveItem)
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), ownerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type lineFunc func(ctx context.Context, ownerID, lineID uuid.UUID) (*cartsvc.CartDTO, error)

func lineAction(logg *logger.Logger, fn lineFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := ownerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cart, err := fn(r.Context(), ownerID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func ownerFromContext(r *http.Request) (uuid.UUID, error) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing owner")
	}
	return ownerID, nil
}
