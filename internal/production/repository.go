package production

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for order/product persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// NextScheduledOrder retrieves the earliest eligible scheduled order.
	// Ordering: null scheduled date last, then scheduled date ascending,
	// then id ascending - ties broken deterministically.
	// Returns ErrNoScheduledOrder if no scheduled order exists.
	NextScheduledOrder(ctx context.Context) (*Order, error)

	// GetOrder retrieves an order by ID.
	// Returns ErrOrderNotFound if the order does not exist.
	GetOrder(ctx context.Context, id int64) (*Order, error)

	// ListOrders retrieves all orders, newest first.
	ListOrders(ctx context.Context) ([]Order, error)

	// ProductsForOrder retrieves all products of an order, id ascending.
	ProductsForOrder(ctx context.Context, orderID int64) ([]Product, error)

	// SetOrderStatus updates an order's status.
	// Returns ErrOrderNotFound if the order does not exist.
	SetOrderStatus(ctx context.Context, id int64, status OrderStatus) error

	// StartProduct marks a product in_progress and records its start time.
	// Returns ErrProductNotFound if the product does not exist.
	StartProduct(ctx context.Context, id int64, start time.Time) error

	// CompleteProduct marks a product completed and records its end time.
	// Returns ErrProductNotFound if the product does not exist.
	CompleteProduct(ctx context.Context, id int64, end time.Time) error

	// Normalize reconciles an order's product rows with its quantity:
	// excess rows are removed (highest id first), kept rows with any
	// non-default status or timestamps are forced back to scheduled, and
	// missing rows are created with freshly generated unique serials.
	// Runs in a single transaction.
	Normalize(ctx context.Context, orderID int64) (*NormalizeResult, error)

	// ResetAll returns every order and product to the initial state and
	// normalizes all orders, in one transaction. Residual rows not in the
	// scheduled state afterwards are counted, not corrected.
	ResetAll(ctx context.Context) (*ResetResult, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const orderColumns = `id, order_code, product_code, product_type_id, quantity,
		scheduled_date, delivery_date, status, remarks, created_at, updated_at`

const productColumns = `id, serial_number, order_id, product_type_id, status,
		produced_start, produced_end, description, created_at, updated_at`

// NextScheduledOrder retrieves the earliest eligible scheduled order.
func (r *SQLiteRepository) NextScheduledOrder(ctx context.Context) (*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM production_orders
		WHERE status = ?
		ORDER BY scheduled_date IS NULL, scheduled_date ASC, id ASC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, string(OrderScheduled))
	order, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoScheduledOrder
		}
		return nil, fmt.Errorf("querying next scheduled order: %w", err)
	}
	return order, nil
}

// GetOrder retrieves an order by ID.
func (r *SQLiteRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM production_orders
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	order, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

// ListOrders retrieves all orders, newest first.
func (r *SQLiteRepository) ListOrders(ctx context.Context) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM production_orders
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

// ProductsForOrder retrieves all products of an order, id ascending.
func (r *SQLiteRepository) ProductsForOrder(ctx context.Context, orderID int64) ([]Product, error) {
	return queryProducts(ctx, r.db, `
		SELECT `+productColumns+`
		FROM production_products
		WHERE order_id = ?
		ORDER BY id ASC`, orderID)
}

// SetOrderStatus updates an order's status.
func (r *SQLiteRepository) SetOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE production_orders
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return requireAffected(result, ErrOrderNotFound)
}

// StartProduct marks a product in_progress and records its start time.
func (r *SQLiteRepository) StartProduct(ctx context.Context, id int64, start time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE production_products
		SET status = ?, produced_start = ?, updated_at = ?
		WHERE id = ?`,
		string(ProductInProgress),
		start.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("starting product: %w", err)
	}
	return requireAffected(result, ErrProductNotFound)
}

// CompleteProduct marks a product completed and records its end time.
func (r *SQLiteRepository) CompleteProduct(ctx context.Context, id int64, end time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE production_products
		SET status = ?, produced_end = ?, updated_at = ?
		WHERE id = ?`,
		string(ProductCompleted),
		end.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("completing product: %w", err)
	}
	return requireAffected(result, ErrProductNotFound)
}

// Normalize reconciles an order's product rows with its quantity.
func (r *SQLiteRepository) Normalize(ctx context.Context, orderID int64) (*NormalizeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning normalize transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	order, err := getOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	result, err := normalizeOrder(ctx, tx, order, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing normalize: %w", err)
	}
	return result, nil
}

// ResetAll returns every order and product to the initial state and
// normalizes all orders, atomically.
func (r *SQLiteRepository) ResetAll(ctx context.Context) (*ResetResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reset transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339)
	result := &ResetResult{}

	// Orders back to scheduled
	res, err := tx.ExecContext(ctx, `
		UPDATE production_orders
		SET status = ?, updated_at = ?
		WHERE status IN (?, ?)`,
		string(OrderScheduled), nowStr,
		string(OrderInProgress), string(OrderCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("resetting orders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	result.OrdersReset = int(n)

	// Products back to scheduled with null timestamps
	res, err = tx.ExecContext(ctx, `
		UPDATE production_products
		SET status = ?, produced_start = NULL, produced_end = NULL, updated_at = ?
		WHERE status != ? OR produced_start IS NOT NULL OR produced_end IS NOT NULL`,
		string(ProductScheduled), nowStr,
		string(ProductScheduled),
	)
	if err != nil {
		return nil, fmt.Errorf("resetting products: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	result.ProductsReset = int(n)

	// Normalize every order so product populations match quantities
	orders, err := listOrdersTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		nr, err := normalizeOrder(ctx, tx, &orders[i], now)
		if err != nil {
			return nil, fmt.Errorf("normalizing order %d: %w", orders[i].ID, err)
		}
		result.Created += nr.Created
		result.Deleted += nr.Deleted
		result.Updated += nr.Updated
	}

	// Residual rows not in the scheduled state indicate an inconsistency.
	// Surface the count; do not correct.
	err = tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM production_orders WHERE status != ?) +
			(SELECT COUNT(*) FROM production_products WHERE status != ?)`,
		string(OrderScheduled), string(ProductScheduled),
	).Scan(&result.RemainingAbnormal)
	if err != nil {
		return nil, fmt.Errorf("counting abnormal rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reset: %w", err)
	}
	return result, nil
}

// dbtx is the subset of sql.DB / sql.Tx used by shared query helpers.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// normalizeOrder adjusts one order's product rows to match its quantity.
// Must run inside a transaction owned by the caller.
func normalizeOrder(ctx context.Context, tx dbtx, order *Order, now time.Time) (*NormalizeResult, error) {
	products, err := queryProducts(ctx, tx, `
		SELECT `+productColumns+`
		FROM production_products
		WHERE order_id = ?
		ORDER BY id ASC`, order.ID)
	if err != nil {
		return nil, err
	}

	result := &NormalizeResult{}
	nowStr := now.Format(time.RFC3339)

	// Trim excess rows, highest id first (products are id ascending, so
	// everything past the quantity mark goes).
	kept := products
	if len(products) > order.Quantity {
		for _, p := range products[order.Quantity:] {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM production_products WHERE id = ?", p.ID,
			); err != nil {
				return nil, fmt.Errorf("deleting excess product %d: %w", p.ID, err)
			}
			result.Deleted++
		}
		kept = products[:order.Quantity]
	}

	// Force kept rows back to the default state
	for _, p := range kept {
		if p.Status == ProductScheduled && p.ProducedStart == nil && p.ProducedEnd == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE production_products
			SET status = ?, produced_start = NULL, produced_end = NULL, updated_at = ?
			WHERE id = ?`,
			string(ProductScheduled), nowStr, p.ID,
		); err != nil {
			return nil, fmt.Errorf("resetting product %d: %w", p.ID, err)
		}
		result.Updated++
	}

	// Create missing rows with fresh unique serials
	for seq := len(kept) + 1; seq <= order.Quantity; seq++ {
		serial := GenerateSerial(order.ProductCode, seq, now)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO production_products (
				serial_number, order_id, product_type_id, status,
				produced_start, produced_end, description, created_at, updated_at
			) VALUES (?, ?, ?, ?, NULL, NULL, NULL, ?, ?)`,
			serial,
			order.ID,
			nullableInt64(order.ProductTypeID),
			string(ProductScheduled),
			nowStr,
			nowStr,
		); err != nil {
			if isUniqueConstraintError(err) {
				return nil, fmt.Errorf("%w: %s", ErrSerialExists, serial)
			}
			return nil, fmt.Errorf("creating product for order %d: %w", order.ID, err)
		}
		result.Created++
	}

	return result, nil
}

// getOrderTx retrieves an order within a transaction.
func getOrderTx(ctx context.Context, tx dbtx, id int64) (*Order, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM production_orders
		WHERE id = ?`, id)
	order, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

// listOrdersTx retrieves all orders within a transaction, id ascending.
func listOrdersTx(ctx context.Context, tx dbtx) ([]Order, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM production_orders
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

// queryProducts executes a product query and scans the results.
func queryProducts(ctx context.Context, db dbtx, query string, args ...any) ([]Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrderRow scans a row or rows result into an Order.
func scanOrderRow(scanner rowScanner) (*Order, error) {
	var o Order
	var productTypeID sql.NullInt64
	var scheduledDate, deliveryDate, remarks sql.NullString
	var status, createdAt, updatedAt string

	err := scanner.Scan(
		&o.ID,
		&o.OrderCode,
		&o.ProductCode,
		&productTypeID,
		&o.Quantity,
		&scheduledDate,
		&deliveryDate,
		&status,
		&remarks,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = OrderStatus(status)
	if productTypeID.Valid {
		o.ProductTypeID = &productTypeID.Int64
	}
	if remarks.Valid {
		o.Remarks = &remarks.String
	}
	o.ScheduledDate = parseNullableTime(scheduledDate)
	o.DeliveryDate = parseNullableTime(deliveryDate)

	var parseErr error
	o.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	o.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &o, nil
}

// scanProductRow scans a row or rows result into a Product.
func scanProductRow(scanner rowScanner) (*Product, error) {
	var p Product
	var productTypeID sql.NullInt64
	var producedStart, producedEnd, description sql.NullString
	var status, createdAt, updatedAt string

	err := scanner.Scan(
		&p.ID,
		&p.SerialNumber,
		&p.OrderID,
		&productTypeID,
		&status,
		&producedStart,
		&producedEnd,
		&description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = ProductStatus(status)
	if productTypeID.Valid {
		p.ProductTypeID = &productTypeID.Int64
	}
	if description.Valid {
		p.Description = &description.String
	}
	p.ProducedStart = parseNullableTime(producedStart)
	p.ProducedEnd = parseNullableTime(producedEnd)

	var parseErr error
	p.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	p.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &p, nil
}

// parseNullableTime parses an optional RFC3339 column value.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// nullableInt64 returns a sql.NullInt64 for optional int64 pointers.
func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// requireAffected converts a zero-rows update into the given sentinel error.
func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
