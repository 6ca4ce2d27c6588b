package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill payment status, derived from paid amount vs total.
const (
	BillPaid    = "paid"
	BillPartial = "partial"
	BillPending = "pending"
)

// BillItem lifecycle. A pending item either completes (one-way) or is voided,
// which deletes the row after restoring stock.
const (
	ItemPending   = "pending"
	ItemCompleted = "completed"
)

// Payment record status. Rows are append-only; the only mutation ever applied
// is the flip to refunded when the owning bill is cancelled.
const (
	PaymentCompleted = "completed"
	PaymentPartial   = "partial"
	PaymentPending   = "pending"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// How a bill's discount and tax fields are applied.
const (
	AdjustAmount     = "amount"
	AdjustPercentage = "percentage"
)

type Bill struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	BillNumber string `gorm:"type:varchar(50);uniqueIndex;not null"`

	CustomerName    string `gorm:"type:varchar(100);not null;default:'Walk-in Customer'"`
	CustomerPhone   string `gorm:"type:varchar(20)"`
	CustomerEmail   string `gorm:"type:varchar(100)"`
	CustomerGST     string `gorm:"type:varchar(50)"`
	CustomerAddress string `gorm:"type:varchar(200)"`

	// Money fields are stored unrounded; rounding to two decimals happens at
	// the serialization boundary only, so repeated recalculation does not
	// compound rounding error.
	Subtotal     float64 `gorm:"default:0"`
	Discount     float64 `gorm:"default:0"`
	DiscountType string  `gorm:"type:varchar(20);default:'amount'"`
	Tax          float64 `gorm:"default:0"`
	TaxType      string  `gorm:"type:varchar(20);default:'percentage'"`
	Total        float64 `gorm:"default:0"`

	PaidAmount    float64 `gorm:"default:0"`
	ChangeAmount  float64 `gorm:"default:0"`
	PaymentMethod string  `gorm:"type:varchar(50);default:'cash'"`
	PaymentStatus string  `gorm:"type:varchar(20);default:'pending'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []BillItem `gorm:"foreignKey:BillID"`
	Payments []Payment  `gorm:"foreignKey:BillID"`
}

type BillItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	BillID    uint `gorm:"index;not null"`
	ProductID uint `gorm:"not null"`

	// Snapshot of the product at billing time. Later product edits must not
	// rewrite historical bills.
	ProductName  string  `gorm:"type:varchar(100);not null"`
	ProductModel string  `gorm:"type:varchar(100)"`
	ProductType  string  `gorm:"type:varchar(100)"`
	SellPrice    float64 `gorm:"not null"`
	Quantity     int     `gorm:"not null"`
	Total        float64 `gorm:"not null"`

	ItemStatus string `gorm:"type:varchar(20);not null;default:'pending'"`

	CreatedAt time.Time
}

type Payment struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	BillID    uint    `gorm:"index;not null"`
	PaymentID string  `gorm:"type:varchar(100);uniqueIndex"`
	Amount    float64 `gorm:"not null"`
	Method    string  `gorm:"type:varchar(50);not null"`
	Status    string  `gorm:"type:varchar(20);default:'completed'"`
	Reference string  `gorm:"type:varchar(100)"`
	Notes     string  `gorm:"type:text"`
	CreatedAt time.Time
}

// CalculateTotals recomputes the derived money fields from the current item
// set and the bill's discount/tax settings. A percentage tax applies to the
// post-discount base, never the raw subtotal. The total is deliberately not
// clamped at zero when the discount exceeds subtotal plus tax.
func (b *Bill) CalculateTotals() {
	hundred := decimal.NewFromInt(100)

	subtotal := decimal.Zero
	for _, item := range b.Items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}

	discountAmount := decimal.NewFromFloat(b.Discount)
	if b.DiscountType == AdjustPercentage {
		discountAmount = subtotal.Mul(decimal.NewFromFloat(b.Discount)).Div(hundred)
	}

	taxAmount := decimal.NewFromFloat(b.Tax)
	if b.TaxType == AdjustPercentage {
		taxAmount = subtotal.Sub(discountAmount).Mul(decimal.NewFromFloat(b.Tax)).Div(hundred)
	}

	total := subtotal.Sub(discountAmount).Add(taxAmount)
	paid := decimal.NewFromFloat(b.PaidAmount)

	change := paid.Sub(total)
	if change.IsNegative() {
		change = decimal.Zero
	}

	b.Subtotal, _ = subtotal.Float64()
	b.Total, _ = total.Float64()
	b.ChangeAmount, _ = change.Float64()

	switch {
	case paid.GreaterThanOrEqual(total):
		b.PaymentStatus = BillPaid
	case paid.IsPositive():
		b.PaymentStatus = BillPartial
	default:
		b.PaymentStatus = BillPending
	}
}

// PendingItemCount counts loaded items still in the pending state.
func (b *Bill) PendingItemCount() int {
	count := 0
	for _, item := range b.Items {
		if item.ItemStatus == ItemPending {
			count++
		}
	}
	return count
}
