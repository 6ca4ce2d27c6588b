package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"braintech-system/internal/billing"
)

const (
	STATISTICS_CACHE_KEY = "billing:statistics"
	STATISTICS_CACHE_TTL = 2 * time.Minute

	// Mirrors the inventory handler's keys: bill mutations move stock, so the
	// cached product views go stale too.
	PRODUCTS_CACHE_KEY      = "inventory:products"
	PRODUCT_STATS_CACHE_KEY = "inventory:products:statistics"
)

type BillingHandler struct {
	engine *billing.Engine
	redis  *redis.Client
}

func NewBillingHandler(engine *billing.Engine, redisClient *redis.Client) *BillingHandler {
	return &BillingHandler{
		engine: engine,
		redis:  redisClient,
	}
}

func (h *BillingHandler) invalidateCaches(c *gin.Context) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(c.Request.Context(), STATISTICS_CACHE_KEY, PRODUCTS_CACHE_KEY, PRODUCT_STATS_CACHE_KEY)
}

// Request structs
type BillItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type CreateBillRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerGST     string `json:"customer_gst"`
	CustomerAddress string `json:"customer_address"`

	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discount_type" binding:"omitempty,oneof=amount percentage"`
	Tax          float64 `json:"tax"`
	TaxType      string  `json:"tax_type" binding:"omitempty,oneof=amount percentage"`

	PaidAmount    float64 `json:"paid_amount"`
	PaymentMethod string  `json:"payment_method"`

	Items []BillItemRequest `json:"items"`
}

type UpdatePaymentRequest struct {
	PaidAmount       *float64 `json:"paid_amount"`
	PaymentMethod    *string  `json:"payment_method"`
	AdditionalAmount *float64 `json:"additional_amount"`
	Reference        string   `json:"reference"`
	Notes            string   `json:"notes"`
}

type ListBillsQuery struct {
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	Customer      string `form:"customer"`
	PaymentMethod string `form:"payment_method"`
	PaymentStatus string `form:"payment_status"`
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"page_size,default=20"`
}

func (h *BillingHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	input := billing.CreateBillInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerGST:     req.CustomerGST,
		CustomerAddress: req.CustomerAddress,
		Discount:        req.Discount,
		DiscountType:    req.DiscountType,
		Tax:             req.Tax,
		TaxType:         req.TaxType,
		PaidAmount:      req.PaidAmount,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, billing.BillItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	bill, err := h.engine.CreateBill(input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusCreated, successResponse("Bill created successfully", billToResponse(bill)))
}

func (h *BillingHandler) GetBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}

	bill, err := h.engine.GetBill(billID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Bill retrieved successfully", billToResponse(bill)))
}

func (h *BillingHandler) GetBillByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Bill number required"))
		return
	}

	bill, err := h.engine.GetBillByNumber(number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Bill retrieved successfully", billToResponse(bill)))
}

func (h *BillingHandler) ListBills(c *gin.Context) {
	var query ListBillsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	filter := billing.ListBillsFilter{
		Customer:      query.Customer,
		PaymentMethod: query.PaymentMethod,
		PaymentStatus: query.PaymentStatus,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}

	if query.StartDate != "" {
		start, err := time.Parse("2006-01-02", query.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		filter.StartDate = &start
	}
	if query.EndDate != "" {
		end, err := time.Parse("2006-01-02", query.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// Inclusive through the end of the named day.
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	page, err := h.engine.ListBills(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Bills retrieved successfully",
		billsToResponses(page.Bills), gin.H{
			"total":     page.Total,
			"pages":     page.Pages,
			"page":      page.Page,
			"page_size": page.PageSize,
		}))
}

func (h *BillingHandler) GetBillsWithPendingItems(c *gin.Context) {
	bills, err := h.engine.BillsWithPendingItems()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Pending bills retrieved successfully", billsToResponses(bills)))
}

func (h *BillingHandler) GetPendingItems(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}

	bill, items, err := h.engine.PendingItems(billID)
	if err != nil {
		respondError(c, err)
		return
	}

	itemResponses := make([]BillItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = itemToResponse(item)
	}

	c.JSON(http.StatusOK, successResponse("Pending items retrieved successfully", gin.H{
		"bill_number":   bill.BillNumber,
		"customer_name": bill.CustomerName,
		"pending_items": itemResponses,
	}))
}

func (h *BillingHandler) CompleteItem(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	item, err := h.engine.CompleteItem(billID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusOK, successResponse("Item marked as completed", itemToResponse(*item)))
}

func (h *BillingHandler) CompleteAllItems(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}

	completed, err := h.engine.CompleteAllItems(billID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusOK, successResponse("All pending items marked as completed", gin.H{
		"completed_count": completed,
	}))
}

func (h *BillingHandler) VoidItem(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	bill, err := h.engine.VoidItem(billID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusOK, successResponse("Item voided and stock restored", billToResponse(bill)))
}

func (h *BillingHandler) CancelBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.CancelBill(billID); err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusOK, successResponse("Bill cancelled and stock restored", nil))
}

func (h *BillingHandler) UpdatePayment(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	bill, err := h.engine.UpdatePayment(billID, billing.UpdatePaymentInput{
		PaidAmount:       req.PaidAmount,
		PaymentMethod:    req.PaymentMethod,
		AdditionalAmount: req.AdditionalAmount,
		Reference:        req.Reference,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidateCaches(c)
	c.JSON(http.StatusOK, successResponse("Payment updated successfully", billToResponse(bill)))
}

type statisticsResponse struct {
	TodayBills     int64                     `json:"today_bills"`
	TodayRevenue   float64                   `json:"today_revenue"`
	WeekBills      int64                     `json:"week_bills"`
	WeekRevenue    float64                   `json:"week_revenue"`
	MonthBills     int64                     `json:"month_bills"`
	MonthRevenue   float64                   `json:"month_revenue"`
	AverageBill    float64                   `json:"average_bill"`
	PendingItems   int64                     `json:"pending_items"`
	PaymentMethods []billing.MethodBreakdown `json:"payment_methods"`
	RecentBills    []BillResponse            `json:"recent_bills"`
}

func (h *BillingHandler) GetStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, STATISTICS_CACHE_KEY).Result(); err == nil {
			var resp statisticsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				c.JSON(http.StatusOK, successResponse("Statistics retrieved successfully", resp))
				return
			}
		}
	}

	stats, err := h.engine.Statistics()
	if err != nil {
		respondError(c, err)
		return
	}

	resp := statisticsResponse{
		TodayBills:     stats.TodayBills,
		TodayRevenue:   round2(stats.TodayRevenue),
		WeekBills:      stats.WeekBills,
		WeekRevenue:    round2(stats.WeekRevenue),
		MonthBills:     stats.MonthBills,
		MonthRevenue:   round2(stats.MonthRevenue),
		AverageBill:    round2(stats.AverageBill),
		PendingItems:   stats.PendingItems,
		PaymentMethods: stats.PaymentMethods,
		RecentBills:    billsToResponses(stats.RecentBills),
	}

	if h.redis != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.redis.Set(ctx, STATISTICS_CACHE_KEY, payload, STATISTICS_CACHE_TTL)
		}
	}

	c.JSON(http.StatusOK, successResponse("Statistics retrieved successfully", resp))
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
