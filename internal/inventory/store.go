package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"braintech-system/internal/database/models"
)

// ErrInsufficientStock is returned by DecrementStock when the guarded update
// matches no row, i.e. the on-hand quantity is below the requested amount.
var ErrInsufficientStock = errors.New("insufficient stock")

// Store is the stock ledger the billing engine draws against. Every method
// operates on the caller's transaction handle so stock movements commit or
// roll back together with the bill rows that caused them.
type Store interface {
	ProductByID(tx *gorm.DB, id uint) (*models.Product, error)
	ProductForUpdate(tx *gorm.DB, id uint) (*models.Product, error)
	DecrementStock(tx *gorm.DB, id uint, qty int) error
	IncrementStock(tx *gorm.DB, id uint, qty int) error
}

type sqlStore struct{}

func NewStore() Store { return sqlStore{} }

func (sqlStore) ProductByID(tx *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductForUpdate reads the product under a row lock so concurrent
// check-then-decrement sequences against the same product serialize instead
// of racing.
func (sqlStore) ProductForUpdate(tx *gorm.DB, id uint) (*models.Product, error) {
	q := tx
	// SQLite (the test driver) serializes writers itself and rejects FOR UPDATE.
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := q.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock commits stock to a bill. The quantity guard keeps the stored
// value from ever dropping below zero even if a caller skipped the locked read.
func (sqlStore) DecrementStock(tx *gorm.DB, id uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
	}
	return nil
}

func (sqlStore) IncrementStock(tx *gorm.DB, id uint, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}
