package port

import (
	"context"
	"fmt"

	"cartsync/internal/core/domain"
)

// NetworkError marks a transport-level failure: timeout, broken connection,
// or a server error with no usable body. Retryable.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteService is the order/menu backend. Calls return *NetworkError when
// the service could not be reached; a business rejection comes back as a
// decoded response with Success=false and a nil error.
type RemoteService interface {
	FetchMenu(ctx context.Context) ([]byte, error)
	SubmitOrder(ctx context.Context, order domain.Order) (*domain.CheckoutResponse, error)
	OrderStatus(ctx context.Context, orderNumber string) (*domain.StatusResponse, error)
	CancelOrder(ctx context.Context, orderNumber, reason string) (*domain.CancelResponse, error)
}
