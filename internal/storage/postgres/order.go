package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plateful/orders-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are stored as a JSONB snapshot; the session_id column carries a
// UNIQUE constraint so confirmation lookups resolve to at most one row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, user_id, first_name, last_name, phone, email,
	address, city, zip_code, payment_method, items,
	subtotal, tax, total, shipping,
	payment_status, payment_intent_id, COALESCE(session_id, ''), created_at`

// Create persists a new order. CreatedAt is assigned by the database and
// written back into o.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	// Empty session ids map to NULL so the UNIQUE constraint ignores cash
	// orders.
	err = r.pool.QueryRow(ctx, `
		INSERT INTO orders (
			id, user_id, first_name, last_name, phone, email,
			address, city, zip_code, payment_method, items,
			subtotal, tax, total, shipping,
			payment_status, payment_intent_id, session_id
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, NULLIF($18, '')
		)
		RETURNING created_at`,
		o.ID, o.UserID, o.FirstName, o.LastName, o.Phone, o.Email,
		o.Address, o.City, o.ZipCode, string(o.PaymentMethod), itemsJSON,
		o.Subtotal, o.Tax, o.Total, o.Shipping,
		string(o.PaymentStatus), o.PaymentIntentID, o.SessionID,
	).Scan(&o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}

// GetByID returns one order by its identifier, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetBySessionID returns the order correlated to a provider session, or
// order.ErrNotFound.
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1`, sessionID)
	return scanOrder(row)
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by user")
	}
	return collectOrders(rows)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return collectOrders(rows)
}

// SetPaymentStatusBySession updates exactly one column of the matching row
// and returns the updated record. Concurrent writers to other columns are
// never clobbered, and running the same update twice converges on the same
// row state.
func (r *OrderRepository) SetPaymentStatusBySession(ctx context.Context, sessionID string, status order.PaymentStatus) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders SET payment_status = $2
		WHERE session_id = $1
		RETURNING `+orderColumns,
		sessionID, string(status))
	return scanOrder(row)
}

// Update applies a partial update built from the non-nil fields of upd.
func (r *OrderRepository) Update(ctx context.Context, id string, upd order.Update) (*order.Order, error) {
	set := make([]string, 0, 8)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.ZipCode != nil {
		add("zip_code", *upd.ZipCode)
	}
	if upd.PaymentStatus != nil {
		add("payment_status", string(*upd.PaymentStatus))
	}
	if len(set) == 0 {
		return nil, order.ErrEmptyUpdate
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET `+strings.Join(set, ", ")+` WHERE id = $1 RETURNING `+orderColumns,
		args...)
	return scanOrder(row)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o             order.Order
		method        string
		status        string
		itemsJSON     []byte
		subtotal      decimal.Decimal
		tax           decimal.Decimal
		total         decimal.Decimal
		shipping      decimal.Decimal
		createdAt     time.Time
		paymentIntent string
		sessionID     string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.FirstName, &o.LastName, &o.Phone, &o.Email,
		&o.Address, &o.City, &o.ZipCode, &method, &itemsJSON,
		&subtotal, &tax, &total, &shipping,
		&status, &paymentIntent, &sessionID, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan order")
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrapf(err, "unmarshal items of order %q", o.ID)
	}
	o.PaymentMethod = order.PaymentMethod(method)
	o.PaymentStatus = order.PaymentStatus(status)
	o.Subtotal = subtotal
	o.Tax = tax
	o.Total = total
	o.Shipping = shipping
	o.PaymentIntentID = paymentIntent
	o.SessionID = sessionID
	o.CreatedAt = createdAt
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return orders, nil
}
