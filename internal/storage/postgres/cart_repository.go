package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

// cartRepository — durable-бэкенд корзин для авторизованных пользователей.
type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Load(owner domain.OwnerKey) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cart := domain.Cart{OwnerKey: owner}
	err := r.db.QueryRowContext(ctx, `
		SELECT total, version, updated_at
		FROM carts
		WHERE owner_key = $1
	`, owner.String()).Scan(&cart.Total, &cart.Version, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	lines, err := r.loadLines(ctx, owner.String())
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Lines = lines

	return cart, nil
}

// Save записывает корзину целиком как одну транзакцию: строка carts
// обновляется по optimistic locking (version CAS), позиции перезаписываются.
func (r *cartRepository) Save(cart domain.Cart) error {
	if err := cart.OwnerKey.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	key := cart.OwnerKey.String()

	if cart.Version == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO carts (owner_key, total, version, updated_at)
			VALUES ($1,$2,1,$3)
		`, key, cart.Total, cart.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrCartVersionConflict
			}
			return fmt.Errorf("insert cart: %w", err)
		}
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE carts
			SET total = $1,
			    version = version + 1,
			    updated_at = $2
			WHERE owner_key = $3
			  AND version = $4
		`, cart.Total, cart.UpdatedAt, key, cart.Version)
		if err != nil {
			return fmt.Errorf("update cart: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			err = domain.ErrCartVersionConflict
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE owner_key = $1`, key); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}

	for pos, line := range cart.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cart_lines (
				owner_key, position, product_id, name, unit_price, image_ref, category, quantity
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			key, pos, line.ProductID, line.Name, line.UnitPrice, line.ImageRef, line.Category, line.Quantity,
		); err != nil {
			return fmt.Errorf("insert cart line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

// Clear опустошает корзину владельца; отсутствие корзины — no-op.
func (r *cartRepository) Clear(owner domain.OwnerKey) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	key := owner.String()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE owner_key = $1`, key); err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE carts
		SET total = 0,
		    version = version + 1,
		    updated_at = $2
		WHERE owner_key = $1
	`, key, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear cart: %w", err)
	}

	return nil
}

func (r *cartRepository) loadLines(ctx context.Context, ownerKey string) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, image_ref, category, quantity
		FROM cart_lines
		WHERE owner_key = $1
		ORDER BY position ASC
	`, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ProductID, &line.Name, &line.UnitPrice, &line.ImageRef, &line.Category, &line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CartRepository = (*cartRepository)(nil)
