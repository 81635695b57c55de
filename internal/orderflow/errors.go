package orderflow

import (
	"errors"
	"fmt"

	"github.com/Lolobw32/ecom-oslan/internal/order"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCartInvalid        = errors.New("cart invalid: no item matches a catalog product")
	ErrSubmissionFailed   = errors.New("order submission failed")

	// ErrPermissionDenied is the order repository's sentinel so callers can
	// match either package.
	ErrPermissionDenied = order.ErrPermissionDenied
)

// ItemsError reports that the order row exists but its items could not be
// written. The order is not rolled back.
type ItemsError struct {
	OrderID string
	Err     error
}

func (e *ItemsError) Error() string {
	return fmt.Sprintf("order %s created but items failed: %v", e.OrderID, e.Err)
}

func (e *ItemsError) Unwrap() []error {
	return []error{ErrSubmissionFailed, e.Err}
}
