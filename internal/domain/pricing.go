package domain

// DisplayTaxRate — плоская ставка налога, показываемая покупателю.
// В сохранённый Order.Total налог не входит.
const DisplayTaxRate = 0.08

// DisplayTotals — презентационная раскладка стоимости корзины.
// Считается на лету для отображения и нигде не персистится.
type DisplayTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"display_total"`
}

// CalcDisplayTotals возвращает отображаемые суммы для pre-tax subtotal:
// плоские 8% налога и бесплатная доставка.
func CalcDisplayTotals(subtotal float64) DisplayTotals {
	tax := subtotal * DisplayTaxRate
	return DisplayTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: 0,
		Total:    subtotal + tax,
	}
}
