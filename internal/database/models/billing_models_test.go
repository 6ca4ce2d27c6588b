package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		bill         Bill
		wantSubtotal float64
		wantTotal    float64
		wantChange   float64
		wantStatus   string
	}{
		{
			name: "percentage discount then percentage tax on discounted base",
			bill: Bill{
				Discount:     10,
				DiscountType: AdjustPercentage,
				Tax:          5,
				TaxType:      AdjustPercentage,
				Items: []BillItem{
					{SellPrice: 100, Quantity: 4, Total: 400},
				},
			},
			wantSubtotal: 400,
			wantTotal:    378,
			wantChange:   0,
			wantStatus:   BillPending,
		},
		{
			name: "overpayment yields change and paid status",
			bill: Bill{
				Discount:     10,
				DiscountType: AdjustPercentage,
				Tax:          5,
				TaxType:      AdjustPercentage,
				PaidAmount:   400,
				Items: []BillItem{
					{SellPrice: 100, Quantity: 4, Total: 400},
				},
			},
			wantSubtotal: 400,
			wantTotal:    378,
			wantChange:   22,
			wantStatus:   BillPaid,
		},
		{
			name: "flat discount and flat tax",
			bill: Bill{
				Discount:     50,
				DiscountType: AdjustAmount,
				Tax:          30,
				TaxType:      AdjustAmount,
				PaidAmount:   100,
				Items: []BillItem{
					{SellPrice: 60, Quantity: 2, Total: 120},
					{SellPrice: 40, Quantity: 2, Total: 80},
				},
			},
			wantSubtotal: 200,
			wantTotal:    180,
			wantChange:   0,
			wantStatus:   BillPartial,
		},
		{
			name: "exact payment is paid with zero change",
			bill: Bill{
				PaidAmount: 200,
				Items: []BillItem{
					{SellPrice: 100, Quantity: 2, Total: 200},
				},
			},
			wantSubtotal: 200,
			wantTotal:    200,
			wantChange:   0,
			wantStatus:   BillPaid,
		},
		{
			name: "flat discount above subtotal leaves total negative",
			bill: Bill{
				Discount:     500,
				DiscountType: AdjustAmount,
				Items: []BillItem{
					{SellPrice: 100, Quantity: 4, Total: 400},
				},
			},
			wantSubtotal: 400,
			wantTotal:    -100,
			wantChange:   100,
			wantStatus:   BillPaid,
		},
		{
			name:         "no items",
			bill:         Bill{},
			wantSubtotal: 0,
			wantTotal:    0,
			wantChange:   0,
			wantStatus:   BillPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.bill.CalculateTotals()
			if !almostEqual(tt.bill.Subtotal, tt.wantSubtotal) {
				t.Errorf("Subtotal = %v, want %v", tt.bill.Subtotal, tt.wantSubtotal)
			}
			if !almostEqual(tt.bill.Total, tt.wantTotal) {
				t.Errorf("Total = %v, want %v", tt.bill.Total, tt.wantTotal)
			}
			if !almostEqual(tt.bill.ChangeAmount, tt.wantChange) {
				t.Errorf("ChangeAmount = %v, want %v", tt.bill.ChangeAmount, tt.wantChange)
			}
			if tt.bill.PaymentStatus != tt.wantStatus {
				t.Errorf("PaymentStatus = %q, want %q", tt.bill.PaymentStatus, tt.wantStatus)
			}
		})
	}
}

func TestCalculateTotalsIdempotent(t *testing.T) {
	bill := Bill{
		Discount:     12.5,
		DiscountType: AdjustPercentage,
		Tax:          18,
		TaxType:      AdjustPercentage,
		PaidAmount:   300,
		Items: []BillItem{
			{SellPrice: 33.33, Quantity: 3, Total: 99.99},
			{SellPrice: 149.5, Quantity: 2, Total: 299},
		},
	}

	bill.CalculateTotals()
	total := bill.Total
	change := bill.ChangeAmount

	bill.CalculateTotals()
	if !almostEqual(bill.Total, total) || !almostEqual(bill.ChangeAmount, change) {
		t.Errorf("recalculation drifted: total %v -> %v, change %v -> %v",
			total, bill.Total, change, bill.ChangeAmount)
	}
}

func TestPendingItemCount(t *testing.T) {
	bill := Bill{
		Items: []BillItem{
			{ItemStatus: ItemPending},
			{ItemStatus: ItemCompleted},
			{ItemStatus: ItemPending},
		},
	}
	if got := bill.PendingItemCount(); got != 2 {
		t.Errorf("PendingItemCount() = %d, want 2", got)
	}
}

func TestCalculateDerived(t *testing.T) {
	product := Product{BuyPrice: 80, SellPrice: 100, Quantity: 6}
	product.CalculateDerived()

	if !almostEqual(product.ProfitPercent, 25) {
		t.Errorf("ProfitPercent = %v, want 25", product.ProfitPercent)
	}
	if !almostEqual(product.Amount, 600) {
		t.Errorf("Amount = %v, want 600", product.Amount)
	}
}

func TestCalculateDerivedZeroBuyPrice(t *testing.T) {
	product := Product{BuyPrice: 0, SellPrice: 100, Quantity: 2}
	product.CalculateDerived()

	if product.ProfitPercent != 0 {
		t.Errorf("ProfitPercent = %v, want 0", product.ProfitPercent)
	}
	if !almostEqual(product.Amount, 200) {
		t.Errorf("Amount = %v, want 200", product.Amount)
	}
}
