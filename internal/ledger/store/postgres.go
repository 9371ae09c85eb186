package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agritrace/internal/ledger/models"
	id "agritrace/pkg/domain"
	"agritrace/pkg/platform/sentinel"
)

// Postgres persists products in PostgreSQL. Custody, price, and availability
// changes go through Execute, which holds a SELECT ... FOR UPDATE row lock
// for the duration of the callback so validation, external payment, and
// mutation commit or roll back as one transaction.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed product store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, product *models.Product) (id.ProductID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create product: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The singleton row lock serializes allocation, keeping IDs dense even
	// when concurrent registrations race.
	var counter uint64
	err = tx.QueryRowContext(ctx, `
		UPDATE ledger_state
		SET product_counter = product_counter + 1
		WHERE singleton
		RETURNING product_counter
	`).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate product id: %w", err)
	}
	product.ID = id.ProductID(counter)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, origin, producer, harvested_at, price, owner, available, organic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uint64(product.ID),
		product.Name,
		product.Origin,
		product.Producer.String(),
		product.HarvestedAt,
		product.Price,
		product.Owner.String(),
		product.Available,
		product.Organic,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	if err := insertHistoryTail(ctx, tx, product, 0); err != nil {
		return 0, err
	}
	if err := insertCertificationTail(ctx, tx, product, 0); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create product: %w", err)
	}
	return product.ID, nil
}

func (s *Postgres) FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	product, err := scanProduct(ctx, s.db, productID, false)
	if err != nil {
		return nil, err
	}
	if err := loadSequences(ctx, s.db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Postgres) Execute(ctx context.Context, productID id.ProductID, fn func(product *models.Product) error) (*models.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin execute: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	product, err := scanProduct(ctx, tx, productID, true)
	if err != nil {
		return nil, err
	}
	if err := loadSequences(ctx, tx, product); err != nil {
		return nil, err
	}

	prevHistory := len(product.History)
	prevCertifications := len(product.Certifications)

	if err := fn(product); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET price = $2, owner = $3, available = $4, updated_at = $5
		WHERE id = $1
	`,
		uint64(product.ID),
		product.Price,
		product.Owner.String(),
		product.Available,
		product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := insertHistoryTail(ctx, tx, product, prevHistory); err != nil {
		return nil, err
	}
	if err := insertCertificationTail(ctx, tx, product, prevCertifications); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execute: %w", err)
	}
	return product, nil
}

func (s *Postgres) Count(ctx context.Context) (uint64, error) {
	var counter uint64
	err := s.db.QueryRowContext(ctx, `SELECT product_counter FROM ledger_state WHERE singleton`).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("read product counter: %w", err)
	}
	return counter, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanProduct(ctx context.Context, q queryer, productID id.ProductID, forUpdate bool) (*models.Product, error) {
	query := `
		SELECT id, name, origin, producer, harvested_at, price, owner, available, organic, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		product  models.Product
		rawID    uint64
		producer string
		owner    string
	)
	err := q.QueryRowContext(ctx, query, uint64(productID)).Scan(
		&rawID,
		&product.Name,
		&product.Origin,
		&producer,
		&product.HarvestedAt,
		&product.Price,
		&owner,
		&product.Available,
		&product.Organic,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	product.ID = id.ProductID(rawID)
	product.Producer = id.Principal(producer)
	product.Owner = id.Principal(owner)
	return &product, nil
}

func loadSequences(ctx context.Context, q queryer, product *models.Product) error {
	rows, err := q.QueryContext(ctx, `
		SELECT owner FROM ownership_history WHERE product_id = $1 ORDER BY seq
	`, uint64(product.ID))
	if err != nil {
		return fmt.Errorf("query ownership history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return fmt.Errorf("scan ownership history: %w", err)
		}
		product.History = append(product.History, id.Principal(owner))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ownership history: %w", err)
	}

	certRows, err := q.QueryContext(ctx, `
		SELECT label FROM certifications WHERE product_id = $1 ORDER BY seq
	`, uint64(product.ID))
	if err != nil {
		return fmt.Errorf("query certifications: %w", err)
	}
	defer certRows.Close()
	for certRows.Next() {
		var label string
		if err := certRows.Scan(&label); err != nil {
			return fmt.Errorf("scan certification: %w", err)
		}
		product.Certifications = append(product.Certifications, label)
	}
	if err := certRows.Err(); err != nil {
		return fmt.Errorf("iterate certifications: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertHistoryTail persists history entries appended since the record was
// loaded. seq is 1-based to match the "history length == transfers + 1" view.
func insertHistoryTail(ctx context.Context, e execer, product *models.Product, from int) error {
	for i := from; i < len(product.History); i++ {
		_, err := e.ExecContext(ctx, `
			INSERT INTO ownership_history (product_id, seq, owner, recorded_at)
			VALUES ($1, $2, $3, $4)
		`, uint64(product.ID), i+1, product.History[i].String(), product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ownership history: %w", err)
		}
	}
	return nil
}

func insertCertificationTail(ctx context.Context, e execer, product *models.Product, from int) error {
	for i := from; i < len(product.Certifications); i++ {
		_, err := e.ExecContext(ctx, `
			INSERT INTO certifications (product_id, seq, label, added_at)
			VALUES ($1, $2, $3, $4)
		`, uint64(product.ID), i+1, product.Certifications[i], product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert certification: %w", err)
		}
	}
	return nil
}
