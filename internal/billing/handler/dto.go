package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"braintech-system/internal/database/models"
)

// Response structs. Money is stored unrounded and only rounded to two
// decimals here, at the serialization boundary.

type BillResponse struct {
	ID              uint      `json:"id"`
	BillNumber      string    `json:"bill_number"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	CustomerGST     string    `json:"customer_gst,omitempty"`
	CustomerAddress string    `json:"customer_address,omitempty"`
	Subtotal        float64   `json:"subtotal"`
	Discount        float64   `json:"discount"`
	DiscountType    string    `json:"discount_type"`
	Tax             float64   `json:"tax"`
	TaxType         string    `json:"tax_type"`
	Total           float64   `json:"total"`
	PaidAmount      float64   `json:"paid_amount"`
	ChangeAmount    float64   `json:"change_amount"`
	PaymentMethod   string    `json:"payment_method"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`

	Items    []BillItemResponse `json:"items,omitempty"`
	Payments []PaymentResponse  `json:"payments,omitempty"`

	ItemCount    int `json:"item_count"`
	PendingItems int `json:"pending_items"`
}

type BillItemResponse struct {
	ID           uint    `json:"id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductModel string  `json:"product_model,omitempty"`
	ProductType  string  `json:"product_type,omitempty"`
	SellPrice    float64 `json:"sell_price"`
	Quantity     int     `json:"quantity"`
	Total        float64 `json:"total"`
	ItemStatus   string  `json:"item_status"`
}

type PaymentResponse struct {
	ID        uint      `json:"id"`
	PaymentID string    `json:"payment_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func billToResponse(bill *models.Bill) BillResponse {
	resp := BillResponse{
		ID:              bill.ID,
		BillNumber:      bill.BillNumber,
		CustomerName:    bill.CustomerName,
		CustomerPhone:   bill.CustomerPhone,
		CustomerEmail:   bill.CustomerEmail,
		CustomerGST:     bill.CustomerGST,
		CustomerAddress: bill.CustomerAddress,
		Subtotal:        round2(bill.Subtotal),
		Discount:        round2(bill.Discount),
		DiscountType:    bill.DiscountType,
		Tax:             round2(bill.Tax),
		TaxType:         bill.TaxType,
		Total:           round2(bill.Total),
		PaidAmount:      round2(bill.PaidAmount),
		ChangeAmount:    round2(bill.ChangeAmount),
		PaymentMethod:   bill.PaymentMethod,
		PaymentStatus:   bill.PaymentStatus,
		CreatedAt:       bill.CreatedAt,
		ItemCount:       len(bill.Items),
		PendingItems:    bill.PendingItemCount(),
	}

	for _, item := range bill.Items {
		resp.Items = append(resp.Items, itemToResponse(item))
	}
	for _, payment := range bill.Payments {
		resp.Payments = append(resp.Payments, paymentToResponse(payment))
	}

	return resp
}

func itemToResponse(item models.BillItem) BillItemResponse {
	return BillItemResponse{
		ID:           item.ID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductModel: item.ProductModel,
		ProductType:  item.ProductType,
		SellPrice:    round2(item.SellPrice),
		Quantity:     item.Quantity,
		Total:        round2(item.Total),
		ItemStatus:   item.ItemStatus,
	}
}

func paymentToResponse(payment models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        payment.ID,
		PaymentID: payment.PaymentID,
		Amount:    round2(payment.Amount),
		Method:    payment.Method,
		Status:    payment.Status,
		Reference: payment.Reference,
		Notes:     payment.Notes,
		CreatedAt: payment.CreatedAt,
	}
}

func billsToResponses(bills []models.Bill) []BillResponse {
	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = billToResponse(&bills[i])
	}
	return responses
}
