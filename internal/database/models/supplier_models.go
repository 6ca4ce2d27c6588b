package models

import "time"

type Supplier struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"type:varchar(100);not null"`
	Company string `gorm:"type:varchar(100);not null"`
	Email   string `gorm:"type:varchar(100)"`
	Phone   string `gorm:"type:varchar(20)"`
	Address string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []SupplierItem `gorm:"foreignKey:SupplierID"`
}

// SupplierItem is a catalog entry the supplier offers, priced at buy cost.
// It is independent of Product: products only come into existence once goods
// are received into stock.
type SupplierItem struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	SupplierID uint    `gorm:"index;not null"`
	Name       string  `gorm:"type:varchar(100);not null"`
	Type       string  `gorm:"type:varchar(50)"`
	Model      string  `gorm:"type:varchar(100);not null"`
	Watts      float64 `gorm:"default:0"`
	BuyPrice   float64 `gorm:"not null"`
	Status     string  `gorm:"type:varchar(50);default:'Active'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
