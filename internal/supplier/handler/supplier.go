package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"braintech-system/internal/database/models"
)

type SupplierHandler struct {
	db *gorm.DB
}

func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{db: db}
}

// Request structs
type SupplierRequest struct {
	Name    string `json:"name" binding:"required"`
	Company string `json:"company" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateSupplierRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

type SupplierItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Type     string  `json:"type"`
	Model    string  `json:"model" binding:"required"`
	Watts    float64 `json:"watts"`
	BuyPrice float64 `json:"buy_price" binding:"required"`
	Status   string  `json:"status"`
}

type UpdateSupplierItemRequest struct {
	Name     *string  `json:"name"`
	Type     *string  `json:"type"`
	Model    *string  `json:"model"`
	Watts    *float64 `json:"watts"`
	BuyPrice *float64 `json:"buy_price"`
	Status   *string  `json:"status"`
}

// Response structs
type SupplierResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Items []SupplierItemResponse `json:"items,omitempty"`
}

type SupplierItemResponse struct {
	ID         uint    `json:"id"`
	SupplierID uint    `json:"supplier_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Model      string  `json:"model"`
	Watts      float64 `json:"watts"`
	BuyPrice   float64 `json:"buy_price"`
	Status     string  `json:"status"`
}

func supplierToResponse(supplier models.Supplier, withItems bool) SupplierResponse {
	resp := SupplierResponse{
		ID:        supplier.ID,
		Name:      supplier.Name,
		Company:   supplier.Company,
		Email:     supplier.Email,
		Phone:     supplier.Phone,
		Address:   supplier.Address,
		CreatedAt: supplier.CreatedAt,
	}
	if withItems {
		for _, item := range supplier.Items {
			resp.Items = append(resp.Items, itemToResponse(item))
		}
	}
	return resp
}

func itemToResponse(item models.SupplierItem) SupplierItemResponse {
	return SupplierItemResponse{
		ID:         item.ID,
		SupplierID: item.SupplierID,
		Name:       item.Name,
		Type:       item.Type,
		Model:      item.Model,
		Watts:      item.Watts,
		BuyPrice:   item.BuyPrice,
		Status:     item.Status,
	}
}

// --- Suppliers ---

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Name and company are required"))
		return
	}

	supplier := models.Supplier{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating supplier"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Supplier created successfully", supplierToResponse(supplier, false)))
}

func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := h.db.Order("name").Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	responses := make([]SupplierResponse, len(suppliers))
	for i, supplier := range suppliers {
		responses[i] = supplierToResponse(supplier, false)
	}
	c.JSON(http.StatusOK, successResponse("Suppliers retrieved successfully", responses))
}

func (h *SupplierHandler) ListSuppliersWithItems(c *gin.Context) {
	var suppliers []models.Supplier
	if err := h.db.Preload("Items").Order("name").Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	responses := make([]SupplierResponse, len(suppliers))
	for i, supplier := range suppliers {
		responses[i] = supplierToResponse(supplier, true)
	}
	c.JSON(http.StatusOK, successResponse("Suppliers retrieved successfully", responses))
}

func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var supplier models.Supplier
	if err := h.db.Preload("Items").First(&supplier, supplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier retrieved successfully", supplierToResponse(supplier, true)))
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, supplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Company != nil {
		supplier.Company = *req.Company
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}

	if err := h.db.Save(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating supplier"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier updated successfully", supplierToResponse(supplier, false)))
}

// DeleteSupplier removes the supplier and its catalog items in one
// transaction. The items are owned rows, deleted explicitly rather than by a
// database cascade.
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("supplier_id = ?", supplierID).Delete(&models.SupplierItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Supplier{}, supplierID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting supplier"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Supplier deleted successfully", nil))
}

func (h *SupplierHandler) BulkDeleteSuppliers(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Supplier IDs required"))
		return
	}

	var deleted int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("supplier_id IN ?", req.IDs).Delete(&models.SupplierItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", req.IDs).Delete(&models.Supplier{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting suppliers"))
		return
	}

	c.JSON(http.StatusOK, successResponse(fmt.Sprintf("%d suppliers deleted", deleted), gin.H{
		"deleted_count": deleted,
	}))
}

// --- Supplier catalog items ---

func (h *SupplierHandler) CreateSupplierItem(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SupplierItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Item name, model and buy price are required"))
		return
	}
	if req.BuyPrice < 0 {
		c.JSON(http.StatusBadRequest, errorResponse("Buy price cannot be negative"))
		return
	}

	if err := h.supplierExists(supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	item := models.SupplierItem{
		SupplierID: supplierID,
		Name:       req.Name,
		Type:       req.Type,
		Model:      req.Model,
		Watts:      req.Watts,
		BuyPrice:   req.BuyPrice,
		Status:     req.Status,
	}
	if item.Status == "" {
		item.Status = "Active"
	}

	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating item"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Item created successfully", itemToResponse(item)))
}

func (h *SupplierHandler) ListSupplierItems(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.supplierExists(supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Supplier not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var items []models.SupplierItem
	if err := h.db.Where("supplier_id = ?", supplierID).Order("name").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	responses := make([]SupplierItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemToResponse(item)
	}
	c.JSON(http.StatusOK, successResponse("Items retrieved successfully", responses))
}

func (h *SupplierHandler) UpdateSupplierItem(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req UpdateSupplierItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	item, found, err := h.itemOfSupplier(supplierID, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, errorResponse("Item not found"))
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Type != nil {
		item.Type = *req.Type
	}
	if req.Model != nil {
		item.Model = *req.Model
	}
	if req.Watts != nil {
		item.Watts = *req.Watts
	}
	if req.BuyPrice != nil {
		if *req.BuyPrice < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("Buy price cannot be negative"))
			return
		}
		item.BuyPrice = *req.BuyPrice
	}
	if req.Status != nil {
		item.Status = *req.Status
	}

	if err := h.db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating item"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Item updated successfully", itemToResponse(item)))
}

func (h *SupplierHandler) DeleteSupplierItem(c *gin.Context) {
	supplierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	res := h.db.Where("supplier_id = ?", supplierID).Delete(&models.SupplierItem{}, itemID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting item"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Item not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Item deleted successfully", nil))
}

func (h *SupplierHandler) supplierExists(id uint) error {
	var count int64
	if err := h.db.Model(&models.Supplier{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (h *SupplierHandler) itemOfSupplier(supplierID, itemID uint) (models.SupplierItem, bool, error) {
	var item models.SupplierItem
	err := h.db.Where("supplier_id = ?", supplierID).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, false, nil
	}
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid "+name))
		return 0, false
	}
	return uint(id), true
}
