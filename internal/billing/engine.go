package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"braintech-system/internal/database/models"
	"braintech-system/internal/inventory"
)

// maxCreateRetries bounds how often bill creation is replayed when the
// bill-number unique index trips between the collision poll and the insert.
const maxCreateRetries = 3

// Engine orchestrates the bill lifecycle against the inventory store. Every
// operation runs as one transaction: all stock movements and row writes for
// that operation commit together or not at all.
type Engine struct {
	db     *gorm.DB
	store  inventory.Store
	prefix string
}

func NewEngine(db *gorm.DB, store inventory.Store, prefix string) *Engine {
	if prefix == "" {
		prefix = "BT"
	}
	return &Engine{db: db, store: store, prefix: prefix}
}

type BillItemInput struct {
	ProductID uint
	Quantity  int
}

type CreateBillInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerGST     string
	CustomerAddress string

	Discount     float64
	DiscountType string
	Tax          float64
	TaxType      string

	PaidAmount    float64
	PaymentMethod string

	Items []BillItemInput
}

// CreateBill validates and persists a bill with its line items, committing
// stock to each line immediately. Stock is decremented under row locks so
// concurrent bills for the same product serialize; any failure rolls the
// whole bill back, leaving stock untouched.
func (e *Engine) CreateBill(in CreateBillInput) (*models.Bill, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyBill
	}

	if in.CustomerName == "" {
		in.CustomerName = "Walk-in Customer"
	}
	if in.DiscountType == "" {
		in.DiscountType = models.AdjustAmount
	}
	if in.TaxType == "" {
		in.TaxType = models.AdjustPercentage
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cash"
	}

	var bill models.Bill
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		bill = models.Bill{}
		err = e.db.Transaction(func(tx *gorm.DB) error {
			return e.createBillTx(tx, in, &bill)
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return e.GetBill(bill.ID)
}

func (e *Engine) createBillTx(tx *gorm.DB, in CreateBillInput, bill *models.Bill) error {
	number, err := generateBillNumber(tx, e.prefix)
	if err != nil {
		return err
	}

	*bill = models.Bill{
		BillNumber:      number,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerEmail:   in.CustomerEmail,
		CustomerGST:     in.CustomerGST,
		CustomerAddress: in.CustomerAddress,
		Discount:        in.Discount,
		DiscountType:    in.DiscountType,
		Tax:             in.Tax,
		TaxType:         in.TaxType,
		PaidAmount:      in.PaidAmount,
		PaymentMethod:   in.PaymentMethod,
	}

	for _, line := range in.Items {
		product, err := e.store.ProductForUpdate(tx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errf(KindNotFound, "product with ID %d not found", line.ProductID)
			}
			return err
		}

		if line.Quantity <= 0 {
			return errf(KindValidation, "invalid quantity for %s", product.Name)
		}
		if product.Quantity < line.Quantity {
			return errf(KindConflict, "insufficient stock for %s. Available: %d", product.Name, product.Quantity)
		}

		if err := e.store.DecrementStock(tx, product.ID, line.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return errf(KindConflict, "insufficient stock for %s. Available: %d", product.Name, product.Quantity)
			}
			return err
		}

		bill.Items = append(bill.Items, models.BillItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductModel: product.Model,
			ProductType:  product.Type,
			SellPrice:    product.SellPrice,
			Quantity:     line.Quantity,
			Total:        product.SellPrice * float64(line.Quantity),
			ItemStatus:   models.ItemPending,
		})
	}

	bill.CalculateTotals()

	if err := tx.Create(bill).Error; err != nil {
		return err
	}

	if bill.PaidAmount > 0 {
		status := models.PaymentPartial
		if bill.PaidAmount >= bill.Total {
			status = models.PaymentCompleted
		}
		payment := models.Payment{
			BillID:    bill.ID,
			PaymentID: "PAY-" + bill.BillNumber,
			Amount:    bill.PaidAmount,
			Method:    bill.PaymentMethod,
			Status:    status,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetBill loads a bill with its items and payment log.
func (e *Engine) GetBill(id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := e.db.Preload("Items").Preload("Payments").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "bill %d not found", id)
		}
		return nil, err
	}
	return &bill, nil
}

// GetBillByNumber loads a bill with its items by its human-readable number.
func (e *Engine) GetBillByNumber(number string) (*models.Bill, error) {
	var bill models.Bill
	if err := e.db.Preload("Items").Where("bill_number = ?", number).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "bill %s not found", number)
		}
		return nil, err
	}
	return &bill, nil
}

// BillsWithPendingItems lists every bill that still has at least one pending
// item, newest first.
func (e *Engine) BillsWithPendingItems() ([]models.Bill, error) {
	pending := e.db.Model(&models.BillItem{}).
		Select("bill_id").
		Where("item_status = ?", models.ItemPending)

	var bills []models.Bill
	err := e.db.
		Where("id IN (?)", pending).
		Order("created_at DESC").
		Preload("Items").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// PendingItems returns the bill plus only its pending items.
func (e *Engine) PendingItems(billID uint) (*models.Bill, []models.BillItem, error) {
	bill, err := e.GetBill(billID)
	if err != nil {
		return nil, nil, err
	}

	var items []models.BillItem
	if err := e.db.Where("bill_id = ? AND item_status = ?", billID, models.ItemPending).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return bill, items, nil
}

// CompleteItem flips one pending item to completed. Inventory was already
// committed at bill creation, so this touches no stock.
func (e *Engine) CompleteItem(billID, itemID uint) (*models.BillItem, error) {
	var item models.BillItem
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = e.itemOfBill(tx, billID, itemID)
		if err != nil {
			return err
		}

		if item.ItemStatus != models.ItemPending {
			return ErrItemAlreadyCompleted
		}

		item.ItemStatus = models.ItemCompleted
		return tx.Model(&models.BillItem{}).Where("id = ?", item.ID).
			Update("item_status", models.ItemCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CompleteAllItems flips every pending item of a bill to completed and
// reports how many were affected.
func (e *Engine) CompleteAllItems(billID uint) (int64, error) {
	var completed int64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.billExists(tx, billID); err != nil {
			return err
		}

		res := tx.Model(&models.BillItem{}).
			Where("bill_id = ? AND item_status = ?", billID, models.ItemPending).
			Update("item_status", models.ItemCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoPendingItems
		}
		completed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

// VoidItem removes a pending item from its bill: stock is restored, the item
// row deleted, and the bill totals recomputed from the remaining items.
func (e *Engine) VoidItem(billID, itemID uint) (*models.Bill, error) {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		item, err := e.itemOfBill(tx, billID, itemID)
		if err != nil {
			return err
		}

		if item.ItemStatus != models.ItemPending {
			return errf(KindState, "only pending items can be voided")
		}

		if err := e.store.IncrementStock(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := tx.Delete(&models.BillItem{}, item.ID).Error; err != nil {
			return err
		}

		return e.recalculateBill(tx, billID)
	})
	if err != nil {
		return nil, err
	}
	return e.GetBill(billID)
}

// CancelBill reverses the bill's inventory effects and hard-deletes it.
// Completed items represent goods already handed over and are not restocked.
// Payment rows are flipped to refunded, never deleted: the payment log is the
// only trace a cancelled bill leaves behind.
func (e *Engine) CancelBill(billID uint) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Preload("Items").First(&bill, billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errf(KindNotFound, "bill %d not found", billID)
			}
			return err
		}

		for _, item := range bill.Items {
			if item.ItemStatus == models.ItemCompleted {
				continue
			}
			if err := e.store.IncrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Payment{}).Where("bill_id = ?", billID).
			Update("status", models.PaymentRefunded).Error; err != nil {
			return err
		}

		// Items first, then the bill row: ownership is explicit, not an
		// implicit database cascade.
		if err := tx.Where("bill_id = ?", billID).Delete(&models.BillItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bill{}, billID).Error
	})
}

type UpdatePaymentInput struct {
	PaidAmount       *float64
	PaymentMethod    *string
	AdditionalAmount *float64
	Reference        string
	Notes            string
}

// UpdatePayment overwrites the bill's paid amount and method, recomputes
// totals, and appends one record to the payment log. The log is additive even
// though PaidAmount is overwritten, so the two can diverge; that mirrors how
// the books have always been kept here.
func (e *Engine) UpdatePayment(billID uint, in UpdatePaymentInput) (*models.Bill, error) {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Preload("Items").First(&bill, billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errf(KindNotFound, "bill %d not found", billID)
			}
			return err
		}

		if in.PaidAmount != nil {
			bill.PaidAmount = *in.PaidAmount
		}
		if in.PaymentMethod != nil && *in.PaymentMethod != "" {
			bill.PaymentMethod = *in.PaymentMethod
		}

		bill.CalculateTotals()

		if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(map[string]interface{}{
			"paid_amount":    bill.PaidAmount,
			"payment_method": bill.PaymentMethod,
			"subtotal":       bill.Subtotal,
			"total":          bill.Total,
			"change_amount":  bill.ChangeAmount,
			"payment_status": bill.PaymentStatus,
		}).Error; err != nil {
			return err
		}

		amount := bill.PaidAmount
		if in.AdditionalAmount != nil {
			amount = *in.AdditionalAmount
		}

		payment := models.Payment{
			BillID:    bill.ID,
			PaymentID: fmt.Sprintf("PAY-%s-%s", bill.BillNumber, time.Now().Format("150405")),
			Amount:    amount,
			Method:    bill.PaymentMethod,
			Status:    models.PaymentCompleted,
			Reference: in.Reference,
			Notes:     in.Notes,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	return e.GetBill(billID)
}

type ListBillsFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Customer      string
	PaymentMethod string
	PaymentStatus string
	Page          int
	PageSize      int
}

type BillPage struct {
	Bills    []models.Bill
	Total    int64
	Pages    int
	Page     int
	PageSize int
}

// ListBills returns a filtered, newest-first page of bills with their items
// preloaded so callers can derive item and pending counts.
func (e *Engine) ListBills(f ListBillsFilter) (*BillPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}

	query := e.db.Model(&models.Bill{})
	if f.StartDate != nil {
		query = query.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("created_at <= ?", *f.EndDate)
	}
	if f.Customer != "" {
		query = query.Where("LOWER(customer_name) LIKE LOWER(?)", "%"+f.Customer+"%")
	}
	if f.PaymentMethod != "" {
		query = query.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.PaymentStatus != "" {
		query = query.Where("payment_status = ?", f.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var bills []models.Bill
	offset := (f.Page - 1) * f.PageSize
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(f.PageSize).
		Find(&bills).Error; err != nil {
		return nil, err
	}

	pages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	return &BillPage{
		Bills:    bills,
		Total:    total,
		Pages:    pages,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

func (e *Engine) billExists(tx *gorm.DB, billID uint) error {
	var count int64
	if err := tx.Model(&models.Bill{}).Where("id = ?", billID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errf(KindNotFound, "bill %d not found", billID)
	}
	return nil
}

func (e *Engine) itemOfBill(tx *gorm.DB, billID, itemID uint) (models.BillItem, error) {
	if err := e.billExists(tx, billID); err != nil {
		return models.BillItem{}, err
	}

	var item models.BillItem
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BillItem{}, errf(KindNotFound, "item %d not found", itemID)
		}
		return models.BillItem{}, err
	}
	if item.BillID != billID {
		return models.BillItem{}, errf(KindValidation, "item does not belong to this bill")
	}
	return item, nil
}

// recalculateBill reloads the surviving items and rewrites the bill's derived
// money fields inside the caller's transaction.
func (e *Engine) recalculateBill(tx *gorm.DB, billID uint) error {
	var bill models.Bill
	if err := tx.First(&bill, billID).Error; err != nil {
		return err
	}
	if err := tx.Where("bill_id = ?", billID).Find(&bill.Items).Error; err != nil {
		return err
	}

	bill.CalculateTotals()

	return tx.Model(&models.Bill{}).Where("id = ?", billID).Updates(map[string]interface{}{
		"subtotal":       bill.Subtotal,
		"total":          bill.Total,
		"change_amount":  bill.ChangeAmount,
		"payment_status": bill.PaymentStatus,
	}).Error
}
