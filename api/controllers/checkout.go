package controllers

import (
	"net/http"

	"github.com/lunaplata/joyeria-backend/api/middleware"
	"github.com/lunaplata/joyeria-backend/api/responses"
	"github.com/lunaplata/joyeria-backend/api/validators"
	"github.com/lunaplata/joyeria-backend/internal/checkout"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

// Checkout turns the caller's cart into an order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.OwnerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing owner"))
			return
		}
		var body checkout.CheckoutInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Execute(r.Context(), ownerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}

func ShippingOptions(svc checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.ShippingOptions())
	}
}
