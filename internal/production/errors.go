package production

import "errors"

// Domain errors for the production package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, production.ErrOrderNotFound) {
//	    // handle not found case
//	}
var (
	// ErrOrderNotFound is returned when an order ID does not exist.
	ErrOrderNotFound = errors.New("production: order not found")

	// ErrProductNotFound is returned when a product ID does not exist.
	ErrProductNotFound = errors.New("production: product not found")

	// ErrNoScheduledOrder is returned by NextScheduledOrder when no order
	// with status scheduled exists. The driver treats this as "idle", not
	// as a failure.
	ErrNoScheduledOrder = errors.New("production: no scheduled order")

	// ErrSerialExists is returned when a generated serial number collides
	// with an existing one.
	ErrSerialExists = errors.New("production: serial number already exists")
)
