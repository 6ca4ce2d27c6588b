package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"braintech-system/internal/billing"
	billinghandler "braintech-system/internal/billing/handler"
	inventoryhandler "braintech-system/internal/inventory/handler"
	supplierhandler "braintech-system/internal/supplier/handler"
)

func registerRoutes(r *gin.Engine, db *gorm.DB, redisClient *redis.Client, engine *billing.Engine) {
	billingHandler := billinghandler.NewBillingHandler(engine, redisClient)
	productHandler := inventoryhandler.NewProductHandler(db, redisClient)
	supplierHandler := supplierhandler.NewSupplierHandler(db)

	api := r.Group("/api/v1")

	billingGroup := api.Group("/billing")
	{
		billingGroup.POST("/bills", billingHandler.CreateBill)
		billingGroup.GET("/bills", billingHandler.ListBills)
		billingGroup.GET("/bills/pending", billingHandler.GetBillsWithPendingItems)
		billingGroup.GET("/bills/number/:number", billingHandler.GetBillByNumber)
		billingGroup.GET("/bills/:id", billingHandler.GetBill)
		billingGroup.DELETE("/bills/:id", billingHandler.CancelBill)
		billingGroup.GET("/bills/:id/pending-items", billingHandler.GetPendingItems)
		billingGroup.POST("/bills/:id/items/:item_id/complete", billingHandler.CompleteItem)
		billingGroup.POST("/bills/:id/complete-all", billingHandler.CompleteAllItems)
		billingGroup.DELETE("/bills/:id/items/:item_id", billingHandler.VoidItem)
		billingGroup.PUT("/bills/:id/payment", billingHandler.UpdatePayment)
		billingGroup.GET("/statistics", billingHandler.GetStatistics)
		billingGroup.GET("/search-products", productHandler.SearchProducts)
	}

	products := api.Group("/products")
	{
		products.POST("", productHandler.CreateProduct)
		products.GET("", productHandler.ListProducts)
		products.POST("/bulk", productHandler.BulkCreateProducts)
		products.GET("/statistics", productHandler.GetProductStatistics)
		products.GET("/barcode/:barcode", productHandler.GetProductByBarcode)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
	}

	suppliers := api.Group("/suppliers")
	{
		suppliers.POST("", supplierHandler.CreateSupplier)
		suppliers.GET("", supplierHandler.ListSuppliers)
		suppliers.GET("/with-items", supplierHandler.ListSuppliersWithItems)
		suppliers.POST("/bulk-delete", supplierHandler.BulkDeleteSuppliers)
		suppliers.GET("/:id", supplierHandler.GetSupplier)
		suppliers.PUT("/:id", supplierHandler.UpdateSupplier)
		suppliers.DELETE("/:id", supplierHandler.DeleteSupplier)
		suppliers.POST("/:id/items", supplierHandler.CreateSupplierItem)
		suppliers.GET("/:id/items", supplierHandler.ListSupplierItems)
		suppliers.PUT("/:id/items/:item_id", supplierHandler.UpdateSupplierItem)
		suppliers.DELETE("/:id/items/:item_id", supplierHandler.DeleteSupplierItem)
	}
}
