package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"braintech-system/internal/billing"
	"braintech-system/internal/database"
	"braintech-system/internal/database/models"
	"braintech-system/internal/inventory"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	engine := billing.NewEngine(db, inventory.NewStore(), "BT")
	h := NewBillingHandler(engine, nil)

	r := gin.New()
	r.POST("/bills", h.CreateBill)
	r.GET("/bills/:id", h.GetBill)
	r.DELETE("/bills/:id/items/:item_id", h.VoidItem)
	r.POST("/bills/:id/items/:item_id/complete", h.CompleteItem)
	return r, db
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestCreateBillEndpoint(t *testing.T) {
	r, db := newTestRouter(t)

	product := models.Product{Name: "LED Bulb", BuyPrice: 80, SellPrice: 100, Quantity: 10}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w, resp := performJSON(t, r, http.MethodPost, "/bills", gin.H{
		"discount":      10,
		"discount_type": "percentage",
		"tax":           5,
		"tax_type":      "percentage",
		"paid_amount":   400,
		"items":         []gin.H{{"product_id": product.ID, "quantity": 4}},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Fatalf("success = false: %s", resp.Message)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has unexpected shape: %T", resp.Data)
	}
	if data["total"].(float64) != 378 {
		t.Errorf("total = %v, want 378", data["total"])
	}
	if data["change_amount"].(float64) != 22 {
		t.Errorf("change = %v, want 22", data["change_amount"])
	}
}

func TestCreateBillEndpointEmptyItems(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := performJSON(t, r, http.MethodPost, "/bills", gin.H{"items": []gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Kind != "validation" {
		t.Errorf("kind = %q, want validation", resp.Kind)
	}
}

func TestGetMissingBillEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := performJSON(t, r, http.MethodGet, "/bills/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp.Kind != "not_found" {
		t.Errorf("kind = %q, want not_found", resp.Kind)
	}
}

func TestVoidCompletedItemEndpoint(t *testing.T) {
	r, db := newTestRouter(t)

	product := models.Product{Name: "Fan", BuyPrice: 200, SellPrice: 250, Quantity: 5}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w, resp := performJSON(t, r, http.MethodPost, "/bills", gin.H{
		"items": []gin.H{{"product_id": product.ID, "quantity": 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", w.Code, w.Body.String())
	}

	data := resp.Data.(map[string]interface{})
	billID := int(data["id"].(float64))
	items := data["items"].([]interface{})
	itemID := int(items[0].(map[string]interface{})["id"].(float64))

	path := fmt.Sprintf("/bills/%d/items/%d/complete", billID, itemID)
	if w, _ := performJSON(t, r, http.MethodPost, path, nil); w.Code != http.StatusOK {
		t.Fatalf("complete status = %d", w.Code)
	}

	path = fmt.Sprintf("/bills/%d/items/%d", billID, itemID)
	w, resp = performJSON(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("void status = %d, want 409", w.Code)
	}
	if resp.Kind != "state" {
		t.Errorf("kind = %q, want state", resp.Kind)
	}
}
