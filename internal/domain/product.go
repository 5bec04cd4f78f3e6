package domain

import "time"

// Product — снимок товара из каталога на момент чтения. Движок корзины
// каталог не мутирует: из Product только строятся снапшоты позиций.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Description string
	ImageURL    string
	Category    string
	Stock       int
	CreatedAt   time.Time
}

// SnapshotLine строит позицию корзины из текущего состояния товара.
func (p Product) SnapshotLine(quantity int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageURL,
		Category:  p.Category,
		Quantity:  quantity,
	}
}

// SampleProducts возвращает демонстрационный каталог для сидинга.
func SampleProducts() []Product {
	now := time.Now().UTC()
	return []Product{
		{
			ID:          "prod-headphones",
			Name:        "Wireless Headphones",
			Price:       99.99,
			Description: "High-quality wireless headphones with noise cancellation",
			ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300&h=300&fit=crop",
			Category:    "electronics",
			Stock:       50,
			CreatedAt:   now,
		},
		{
			ID:          "prod-smartphone",
			Name:        "Smartphone",
			Price:       699.99,
			Description: "Latest model smartphone with advanced camera",
			ImageURL:    "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?w=300&h=300&fit=crop",
			Category:    "electronics",
			Stock:       30,
			CreatedAt:   now,
		},
		{
			ID:          "prod-laptop-bag",
			Name:        "Laptop Bag",
			Price:       49.99,
			Description: "Durable laptop bag with multiple compartments",
			ImageURL:    "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=300&h=300&fit=crop",
			Category:    "accessories",
			Stock:       25,
			CreatedAt:   now,
		},
		{
			ID:          "prod-coffee-mug",
			Name:        "Coffee Mug",
			Price:       19.99,
			Description: "Premium ceramic coffee mug",
			ImageURL:    "https://images.unsplash.com/photo-1514228742587-6b1558fcf93a?w=300&h=300&fit=crop",
			Category:    "home",
			Stock:       100,
			CreatedAt:   now,
		},
	}
}
