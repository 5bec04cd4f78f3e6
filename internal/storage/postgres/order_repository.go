package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create сохраняет заказ и его позиции одной транзакцией. История заказов
// append-only: обновлений и удалений у таблицы orders нет.
func (r *orderRepository) Create(order domain.Order) error {
	if order.ID == "" {
		return domain.ErrOrderIDRequired
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

	var (
		addrLine1, addrCity, addrRegion, addrZip, addrCountry sql.NullString
	)
	if order.ShippingAddress != nil {
		addrLine1 = sql.NullString{String: order.ShippingAddress.Line1, Valid: true}
		addrCity = sql.NullString{String: order.ShippingAddress.City, Valid: true}
		addrRegion = sql.NullString{String: order.ShippingAddress.Region, Valid: true}
		addrZip = sql.NullString{String: order.ShippingAddress.Zip, Valid: true}
		addrCountry = sql.NullString{String: order.ShippingAddress.Country, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, owner_key, total, status, placed_at,
			addr_line1, addr_city, addr_region, addr_zip, addr_country
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		order.ID, order.OwnerKey.String(), order.Total, string(order.Status), order.PlacedAt,
		addrLine1, addrCity, addrRegion, addrZip, addrCountry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for pos, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				order_id, position, product_id, name, unit_price, image_ref, category, quantity
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			order.ID, pos, line.ProductID, line.Name, line.UnitPrice, line.ImageRef, line.Category, line.Quantity,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, owner_key, total, status, placed_at,
		       addr_line1, addr_city, addr_region, addr_zip, addr_country
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) ListByOwner(owner domain.OwnerKey, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, owner_key, total, status, placed_at,
		       addr_line1, addr_city, addr_region, addr_zip, addr_country
		FROM orders
		WHERE owner_key = $1
		ORDER BY placed_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", owner.String(), limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, owner.String())
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		lines, err := r.loadLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order                                                 domain.Order
		ownerRaw, statusRaw                                   string
		addrLine1, addrCity, addrRegion, addrZip, addrCountry sql.NullString
	)

	if err := row.Scan(
		&order.ID, &ownerRaw, &order.Total, &statusRaw, &order.PlacedAt,
		&addrLine1, &addrCity, &addrRegion, &addrZip, &addrCountry,
	); err != nil {
		return domain.Order{}, err
	}

	owner, err := domain.ParseOwnerKey(ownerRaw)
	if err != nil {
		return domain.Order{}, err
	}
	order.OwnerKey = owner
	order.Status = domain.OrderStatus(statusRaw)

	if addrLine1.Valid {
		order.ShippingAddress = &domain.Address{
			Line1:   addrLine1.String,
			City:    addrCity.String,
			Region:  addrRegion.String,
			Zip:     addrZip.String,
			Country: addrCountry.String,
		}
	}

	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, image_ref, category, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ProductID, &line.Name, &line.UnitPrice, &line.ImageRef, &line.Category, &line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
