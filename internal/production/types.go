package production

import "time"

// OrderStatus represents the lifecycle state of a production order.
type OrderStatus string

// Order statuses. Transitions are monotonic
// (scheduled -> in_progress -> completed) except via explicit reset.
const (
	OrderScheduled  OrderStatus = "scheduled"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

// ProductStatus represents the lifecycle state of a single product unit.
type ProductStatus string

// Product statuses the simulator produces.
const (
	ProductScheduled  ProductStatus = "scheduled"
	ProductInProgress ProductStatus = "in_progress"
	ProductCompleted  ProductStatus = "completed"
)

// Externally-defined product states. The simulator never sets these but
// must tolerate them when counting completions: downstream warehouse
// systems advance products past "completed".
const (
	ProductAssembling ProductStatus = "assembling"
	ProductTesting    ProductStatus = "testing"
	ProductPackaged   ProductStatus = "packaged"
	ProductShipped    ProductStatus = "shipped"
	ProductHold       ProductStatus = "hold"
)

// IsDone reports whether a product has passed through the production line,
// including externally-set post-completion states.
func (s ProductStatus) IsDone() bool {
	switch s {
	case ProductCompleted, ProductPackaged, ProductShipped:
		return true
	default:
		return false
	}
}

// Order is a unit of requested manufacturing work.
//
// Orders are created externally (order intake is out of scope); the
// simulation driver advances their status and the reset operation returns
// them to scheduled.
type Order struct {
	ID            int64       `json:"id"`
	OrderCode     string      `json:"order_code"`
	ProductCode   string      `json:"product_code"`
	ProductTypeID *int64      `json:"product_type_id,omitempty"`
	Quantity      int         `json:"quantity"`
	ScheduledDate *time.Time  `json:"scheduled_date,omitempty"`
	DeliveryDate  *time.Time  `json:"delivery_date,omitempty"`
	Status        OrderStatus `json:"status"`
	Remarks       *string     `json:"remarks,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Product is one serialized unit belonging to exactly one Order.
type Product struct {
	ID            int64         `json:"id"`
	SerialNumber  string        `json:"serial_number"`
	OrderID       int64         `json:"order_id"`
	ProductTypeID *int64        `json:"product_type_id,omitempty"`
	Status        ProductStatus `json:"status"`
	ProducedStart *time.Time    `json:"produced_start,omitempty"`
	ProducedEnd   *time.Time    `json:"produced_end,omitempty"`
	Description   *string       `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ProductType describes a manufacturable product model.
type ProductType struct {
	ID          int64     `json:"id"`
	ProductCode string    `json:"product_code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeResult reports what Normalize changed for one order.
type NormalizeResult struct {
	// Created is the number of product rows created to reach the order quantity.
	Created int `json:"created"`

	// Deleted is the number of excess product rows removed.
	Deleted int `json:"deleted"`

	// Updated is the number of kept rows forced back to the default state.
	Updated int `json:"updated"`
}

// ResetResult reports what ResetAll changed across the whole store.
type ResetResult struct {
	// OrdersReset is the number of orders returned to scheduled.
	OrdersReset int `json:"orders_reset"`

	// ProductsReset is the number of products returned to scheduled.
	ProductsReset int `json:"products_reset"`

	// Created/Deleted/Updated aggregate the per-order Normalize counts.
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Updated int `json:"updated"`

	// RemainingAbnormal counts rows still not in the scheduled state after
	// the reset. A non-zero value indicates a data inconsistency and is
	// surfaced to the caller, never silently corrected.
	RemainingAbnormal int `json:"remaining_abnormal"`
}
