package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable stock-keeping unit. Quantity is the on-hand stock the
// billing engine draws against; it must never go negative.
type Product struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"type:varchar(100);not null"`
	Model   string `gorm:"type:varchar(100)"`
	Type    string `gorm:"type:varchar(100)"`
	Watts   float64
	Barcode *string `gorm:"type:varchar(64);uniqueIndex"`

	BuyPrice  float64 `gorm:"not null"`
	SellPrice float64 `gorm:"not null"`
	Quantity  int     `gorm:"not null"`

	ProfitPercent float64
	Amount        float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculateDerived refreshes ProfitPercent and Amount. Call it whenever
// prices or quantity change.
func (p *Product) CalculateDerived() {
	if p.BuyPrice > 0 {
		buy := decimal.NewFromFloat(p.BuyPrice)
		sell := decimal.NewFromFloat(p.SellPrice)
		p.ProfitPercent, _ = sell.Sub(buy).Div(buy).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	} else {
		p.ProfitPercent = 0
	}

	amount := decimal.NewFromFloat(p.SellPrice).Mul(decimal.NewFromInt(int64(p.Quantity)))
	p.Amount, _ = amount.Round(2).Float64()
}
