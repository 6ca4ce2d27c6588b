package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"braintech-system/internal/database/models"
)

const (
	PRODUCTS_CACHE_KEY      = "inventory:products"
	PRODUCT_STATS_CACHE_KEY = "inventory:products:statistics"
	PRODUCTS_CACHE_TTL      = 5 * time.Minute
)

type ProductHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductHandler(db *gorm.DB, redisClient *redis.Client) *ProductHandler {
	return &ProductHandler{
		db:    db,
		redis: redisClient,
	}
}

func (h *ProductHandler) invalidateProductCaches(c *gin.Context) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(c.Request.Context(), PRODUCTS_CACHE_KEY, PRODUCT_STATS_CACHE_KEY)
}

// Request structs
type ProductRequest struct {
	Name      string  `json:"name" binding:"required"`
	Model     string  `json:"model"`
	Type      string  `json:"type"`
	Watts     float64 `json:"watts"`
	Barcode   *string `json:"barcode"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Quantity  int     `json:"quantity"`
}

type UpdateProductRequest struct {
	Name      *string  `json:"name"`
	Model     *string  `json:"model"`
	Type      *string  `json:"type"`
	Watts     *float64 `json:"watts"`
	Barcode   *string  `json:"barcode"`
	BuyPrice  *float64 `json:"buy_price"`
	SellPrice *float64 `json:"sell_price"`
	Quantity  *int     `json:"quantity"`
}

type BulkCreateRequest struct {
	Products []ProductRequest `json:"products" binding:"required,min=1"`
}

type ListProductsQuery struct {
	Type     string  `form:"type"`
	MinPrice float64 `form:"min_price"`
	MaxPrice float64 `form:"max_price"`
	Search   string  `form:"search"`
	Page     int     `form:"page,default=1"`
	PageSize int     `form:"page_size,default=20"`
}

// Response struct
type ProductResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Model         string    `json:"model,omitempty"`
	Type          string    `json:"type,omitempty"`
	Watts         float64   `json:"watts,omitempty"`
	Barcode       *string   `json:"barcode,omitempty"`
	BuyPrice      float64   `json:"buy_price"`
	SellPrice     float64   `json:"sell_price"`
	Quantity      int       `json:"quantity"`
	ProfitPercent float64   `json:"profit_percent"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func productToResponse(product models.Product) ProductResponse {
	return ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Model:         product.Model,
		Type:          product.Type,
		Watts:         product.Watts,
		Barcode:       product.Barcode,
		BuyPrice:      round2(product.BuyPrice),
		SellPrice:     round2(product.SellPrice),
		Quantity:      product.Quantity,
		ProfitPercent: product.ProfitPercent,
		Amount:        product.Amount,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func productsToResponses(products []models.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		responses[i] = productToResponse(product)
	}
	return responses
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func validateProductRequest(req ProductRequest) string {
	if req.Name == "" {
		return "Product name is required"
	}
	if req.BuyPrice < 0 || req.SellPrice < 0 {
		return "Prices cannot be negative"
	}
	if req.Quantity < 0 {
		return "Quantity cannot be negative"
	}
	return ""
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if msg := validateProductRequest(req); msg != "" {
		c.JSON(http.StatusBadRequest, errorResponse(msg))
		return
	}

	product := models.Product{
		Name:      req.Name,
		Model:     req.Model,
		Type:      req.Type,
		Watts:     req.Watts,
		Barcode:   req.Barcode,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Quantity:  req.Quantity,
	}
	product.CalculateDerived()

	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating product"))
		return
	}

	h.invalidateProductCaches(c)
	c.JSON(http.StatusCreated, successResponse("Product created successfully", productToResponse(product)))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseID(c)
	if !ok {
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", productToResponse(product)))
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	// Only the unfiltered first page is cached; filtered views hit the database.
	cacheable := h.redis != nil && query.Type == "" && query.Search == "" &&
		query.MinPrice == 0 && query.MaxPrice == 0 && query.Page == 1 && query.PageSize == 20

	if cacheable {
		if cached, err := h.redis.Get(c.Request.Context(), PRODUCTS_CACHE_KEY).Result(); err == nil {
			var resp APIResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	dbQuery := h.db.Model(&models.Product{})
	if query.Type != "" {
		dbQuery = dbQuery.Where("type = ?", query.Type)
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		dbQuery = dbQuery.Where("LOWER(name) LIKE LOWER(?) OR LOWER(model) LIKE LOWER(?)", pattern, pattern)
	}
	if query.MinPrice > 0 {
		dbQuery = dbQuery.Where("sell_price >= ?", query.MinPrice)
	}
	if query.MaxPrice > 0 {
		dbQuery = dbQuery.Where("sell_price <= ?", query.MaxPrice)
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var products []models.Product
	offset := (query.Page - 1) * query.PageSize
	if err := dbQuery.Order("created_at DESC").Offset(offset).Limit(query.PageSize).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	pages := int((total + int64(query.PageSize) - 1) / int64(query.PageSize))
	resp := successWithMetaResponse("Products retrieved successfully", productsToResponses(products), gin.H{
		"total":     total,
		"pages":     pages,
		"page":      query.Page,
		"page_size": query.PageSize,
	})

	if cacheable {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.redis.Set(c.Request.Context(), PRODUCTS_CACHE_KEY, payload, PRODUCTS_CACHE_TTL)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Model != nil {
		product.Model = *req.Model
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.Watts != nil {
		product.Watts = *req.Watts
	}
	if req.Barcode != nil {
		product.Barcode = req.Barcode
	}
	if req.BuyPrice != nil {
		if *req.BuyPrice < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("Prices cannot be negative"))
			return
		}
		product.BuyPrice = *req.BuyPrice
	}
	if req.SellPrice != nil {
		if *req.SellPrice < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("Prices cannot be negative"))
			return
		}
		product.SellPrice = *req.SellPrice
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("Quantity cannot be negative"))
			return
		}
		product.Quantity = *req.Quantity
	}

	product.CalculateDerived()

	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating product"))
		return
	}

	h.invalidateProductCaches(c)
	c.JSON(http.StatusOK, successResponse("Product updated successfully", productToResponse(product)))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseID(c)
	if !ok {
		return
	}

	res := h.db.Delete(&models.Product{}, productID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting product"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		return
	}

	h.invalidateProductCaches(c)
	c.JSON(http.StatusOK, successResponse("Product deleted successfully", nil))
}

// BulkCreateProducts inserts each entry independently and reports per-index
// failures, so one bad row does not sink the batch.
func (h *ProductHandler) BulkCreateProducts(c *gin.Context) {
	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var created []ProductResponse
	var failures []gin.H
	for i, entry := range req.Products {
		if msg := validateProductRequest(entry); msg != "" {
			failures = append(failures, gin.H{"index": i, "error": msg})
			continue
		}

		product := models.Product{
			Name:      entry.Name,
			Model:     entry.Model,
			Type:      entry.Type,
			Watts:     entry.Watts,
			Barcode:   entry.Barcode,
			BuyPrice:  entry.BuyPrice,
			SellPrice: entry.SellPrice,
			Quantity:  entry.Quantity,
		}
		product.CalculateDerived()

		if err := h.db.Create(&product).Error; err != nil {
			failures = append(failures, gin.H{"index": i, "error": "Error creating product"})
			continue
		}
		created = append(created, productToResponse(product))
	}

	h.invalidateProductCaches(c)
	c.JSON(http.StatusCreated, successResponse(
		fmt.Sprintf("%d of %d products created", len(created), len(req.Products)),
		gin.H{
			"created":  created,
			"failures": failures,
		}))
}

type productStatistics struct {
	TotalProducts  int64           `json:"total_products"`
	TotalQuantity  int64           `json:"total_quantity"`
	AvgBuyPrice    float64         `json:"avg_buy_price"`
	AvgSellPrice   float64         `json:"avg_sell_price"`
	InventoryValue float64         `json:"inventory_value"`
	CountsByType   []typeBreakdown `json:"counts_by_type"`
}

type typeBreakdown struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func (h *ProductHandler) GetProductStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, PRODUCT_STATS_CACHE_KEY).Result(); err == nil {
			var stats productStatistics
			if json.Unmarshal([]byte(cached), &stats) == nil {
				c.JSON(http.StatusOK, successResponse("Product statistics retrieved successfully", stats))
				return
			}
		}
	}

	var stats productStatistics
	row := struct {
		Count    int64
		Quantity int64
		AvgBuy   float64
		AvgSell  float64
		Value    float64
	}{}
	err := h.db.Model(&models.Product{}).
		Select("COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS quantity, " +
			"COALESCE(AVG(buy_price), 0) AS avg_buy, COALESCE(AVG(sell_price), 0) AS avg_sell, " +
			"COALESCE(SUM(sell_price * quantity), 0) AS value").
		Scan(&row).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	stats.TotalProducts = row.Count
	stats.TotalQuantity = row.Quantity
	stats.AvgBuyPrice = round2(row.AvgBuy)
	stats.AvgSellPrice = round2(row.AvgSell)
	stats.InventoryValue = round2(row.Value)

	if err := h.db.Model(&models.Product{}).
		Select("type, COUNT(*) AS count").
		Where("type <> ''").
		Group("type").
		Scan(&stats.CountsByType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if h.redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = h.redis.Set(ctx, PRODUCT_STATS_CACHE_KEY, payload, PRODUCTS_CACHE_TTL)
		}
	}

	c.JSON(http.StatusOK, successResponse("Product statistics retrieved successfully", stats))
}

// SearchProducts backs the billing screen's product picker: in-stock matches
// on name, model or type, capped at ten.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	term := c.Query("q")
	if len(term) < 2 {
		c.JSON(http.StatusBadRequest, errorResponse("Search term must be at least 2 characters"))
		return
	}

	pattern := "%" + term + "%"
	var products []models.Product
	err := h.db.
		Where("quantity > 0").
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(model) LIKE LOWER(?) OR LOWER(type) LIKE LOWER(?)",
			pattern, pattern, pattern).
		Order("name").
		Limit(10).
		Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Products retrieved successfully", productsToResponses(products)))
}

func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Barcode required"))
		return
	}

	var product models.Product
	if err := h.db.Where("barcode = ?", barcode).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if product.Quantity <= 0 {
		c.JSON(http.StatusConflict, errorResponse("Product is out of stock"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", productToResponse(product)))
}

func parseID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return 0, false
	}
	return uint(id), true
}
