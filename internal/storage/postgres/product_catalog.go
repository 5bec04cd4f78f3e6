package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productCatalog struct {
	db *sql.DB
}

// NewProductCatalog создаёт PostgreSQL-реализацию витрины каталога.
func NewProductCatalog(store *Store) *productCatalog {
	return &productCatalog{db: store.DB()}
}

func (c *productCatalog) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, price, description, image_url, category, stock, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.Description,
		&product.ImageURL, &product.Category, &product.Stock, &product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (c *productCatalog) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, price, description, image_url, category, stock, created_at
		FROM products
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.Description,
			&product.ImageURL, &product.Category, &product.Stock, &product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Upsert добавляет или обновляет товар; используется сидингом каталога.
func (c *productCatalog) Upsert(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, description, image_url, category, stock, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    price = EXCLUDED.price,
		    description = EXCLUDED.description,
		    image_url = EXCLUDED.image_url,
		    category = EXCLUDED.category,
		    stock = EXCLUDED.stock
	`,
		product.ID, product.Name, product.Price, product.Description,
		product.ImageURL, product.Category, product.Stock, product.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

var _ domain.ProductCatalog = (*productCatalog)(nil)
