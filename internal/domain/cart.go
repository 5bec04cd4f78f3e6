package domain

import "time"

// CartLine — одна позиция корзины. Name, UnitPrice, ImageRef и Category
// являются снапшотом каталога на момент создания позиции и никогда
// не перечитываются, поэтому изменение цены в каталоге не затрагивает
// уже лежащие в корзине позиции.
type CartLine struct {
	ProductID string
	Name      string
	UnitPrice float64
	ImageRef  string
	Category  string
	Quantity  int
}

// LineTotal возвращает стоимость позиции (цена снапшота × количество).
func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart агрегирует состояние корзины до оформления заказа.
// Lines хранит позиции в порядке добавления; Total всегда производен
// от Lines и пересчитывается после каждой мутации.
type Cart struct {
	OwnerKey  OwnerKey
	Lines     []CartLine
	Total     float64
	Version   int64
	UpdatedAt time.Time
}

// NewCart возвращает пустую корзину для владельца.
func NewCart(owner OwnerKey) Cart {
	return Cart{
		OwnerKey:  owner,
		Lines:     []CartLine{},
		Total:     0,
		UpdatedAt: time.Now().UTC(),
	}
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// lineIndex возвращает индекс позиции по productID или -1.
func (c *Cart) lineIndex(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// FindLine возвращает позицию по productID, если она есть в корзине.
func (c *Cart) FindLine(productID string) (CartLine, bool) {
	if i := c.lineIndex(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// MergeLine добавляет позицию в корзину. Если позиция с таким productID
// уже есть, количества складываются, а снапшот существующей позиции
// сохраняется. Инвариант "не более одной позиции на productID" держится
// именно здесь.
func (c *Cart) MergeLine(line CartLine) {
	if i := c.lineIndex(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity выставляет количество позиции ровно в quantity.
// Значение <= 0 удаляет позицию целиком; отсутствие позиции — no-op.
// Возвращает true, если состояние корзины изменилось.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	i := c.lineIndex(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return true
	}
	c.Lines[i].Quantity = quantity
	return true
}

// RemoveLine удаляет позицию, если она есть. Отсутствие позиции не ошибка.
func (c *Cart) RemoveLine(productID string) bool {
	i := c.lineIndex(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// Recalculate пересчитывает Total суммированием позиций в порядке их
// следования. Total никогда не патчится инкрементально.
func (c *Cart) Recalculate() {
	var total float64
	for _, line := range c.Lines {
		total += line.LineTotal()
	}
	c.Total = total
}

// Touch фиксирует момент последней мутации.
func (c *Cart) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// CloneLines возвращает независимую копию позиций корзины.
func (c *Cart) CloneLines() []CartLine {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if err := c.OwnerKey.Validate(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]struct{}, len(c.Lines))
	var calc float64
	for _, line := range c.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
		if line.Quantity < 1 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
		if line.UnitPrice < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if _, dup := seen[line.ProductID]; dup {
			errs = append(errs, ErrDuplicateLine)
		}
		seen[line.ProductID] = struct{}{}
		calc += line.LineTotal()
	}
	if calc != c.Total {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
