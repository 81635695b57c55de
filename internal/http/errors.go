package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/checkout"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/middleware"
	"github.com/Lolobw32/ecom-oslan/internal/order"
	"github.com/Lolobw32/ecom-oslan/internal/orderflow"
	"github.com/Lolobw32/ecom-oslan/internal/pricing"
	"github.com/Lolobw32/ecom-oslan/internal/storefront"
)

const (
	msgPermissionDenied = "permission denied: the database refused the write, check the row-level security policies"
	msgRetry            = "something went wrong, please try again"
)

type validationResponse struct {
	middleware.ErrorResponse
	Step   string   `json:"step"`
	Fields []string `json:"fields"`
}

// writeDomainError maps errors from the core packages to a status code and a
// message the storefront can show.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *customer.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			ErrorResponse: middleware.ErrorResponse{
				Error:         verr.Error(),
				CorrelationID: middleware.GetCorrelationID(r.Context()),
			},
			Step:   verr.Step,
			Fields: verr.Fields,
		})
		return
	}

	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		}
		var itemsErr *orderflow.ItemsError
		if errors.As(err, &itemsErr) {
			fields = append(fields, zap.String("order_id", itemsErr.OrderID))
		}
		h.logger.Error("request failed", fields...)
	}
	writeError(w, r, status, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, order.ErrPermissionDenied), errors.Is(err, catalog.ErrPermissionDenied):
		return http.StatusForbidden, msgPermissionDenied

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrEmailNotConfirmed),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, err.Error()

	case errors.Is(err, checkout.ErrClosed),
		errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrSubmissionInFlight):
		return http.StatusConflict, err.Error()

	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, cart.ErrIndexOutOfRange):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, checkout.ErrInvalidPayment),
		errors.Is(err, pricing.ErrInvalidPromo),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, cart.ErrMissingProduct),
		errors.Is(err, cart.ErrQuantityTooLarge),
		errors.Is(err, catalog.ErrInvalidTitle),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, orderflow.ErrCartInvalid):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, orderflow.ErrCatalogUnavailable), errors.Is(err, storefront.ErrCatalogUnavailable):
		return http.StatusBadGateway, "the catalog is unavailable, please try again"
	case errors.Is(err, orderflow.ErrSubmissionFailed):
		return http.StatusBadGateway, "the order could not be placed, please try again"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgRetry
	default:
		return http.StatusInternalServerError, msgRetry
	}
}
