package domain

import "testing"

func TestCalcDisplayTotals(t *testing.T) {
	totals := CalcDisplayTotals(100.00)

	if totals.Subtotal != 100.00 {
		t.Fatalf("expected subtotal 100.00, got %v", totals.Subtotal)
	}
	if totals.Tax != 8.00 {
		t.Fatalf("expected tax 8.00, got %v", totals.Tax)
	}
	if totals.Shipping != 0 {
		t.Fatalf("expected free shipping, got %v", totals.Shipping)
	}
	if totals.Total != 108.00 {
		t.Fatalf("expected display total 108.00, got %v", totals.Total)
	}
}

func TestCalcDisplayTotals_EmptyCart(t *testing.T) {
	totals := CalcDisplayTotals(0)
	if totals.Total != 0 || totals.Tax != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}
