package domain

import "time"

// OrderStatus описывает статус оформленного заказа.
type OrderStatus string

const (
	// OrderStatusCompleted — заказ оформлен; других переходов движок не делает.
	OrderStatusCompleted OrderStatus = "completed"
)

// Address — адрес доставки, сохраняемый только для авторизованных заказов.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Order — неизменяемая запись оформленного заказа. Lines копируются из
// корзины в момент checkout и больше не меняются; Total равен pre-tax
// сумме позиций (налог и доставка считаются только для отображения).
type Order struct {
	ID              string
	OwnerKey        OwnerKey
	Lines           []CartLine
	Total           float64
	Status          OrderStatus
	PlacedAt        time.Time
	ShippingAddress *Address
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if err := o.OwnerKey.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrOrderLinesRequired)
	}
	if o.Status != OrderStatusCompleted {
		errs = append(errs, ErrOrderStatusInvalid)
	}

	// Сверяем сумму заказа с суммой позиций в порядке их следования.
	var calc float64
	for _, line := range o.Lines {
		if line.Quantity < 1 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
		if line.UnitPrice < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc += line.LineTotal()
	}
	if calc != o.Total {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
