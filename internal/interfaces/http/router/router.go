package router

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/autoparts/backend/internal/infrastructure/logger"
	"github.com/autoparts/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var setupValidatorOnce sync.Once

// setupValidator teaches the binding validator about decimal fields so
// numeric tags (gt, gte) apply to quantities, and reports field names
// from json tags.
func setupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Dependencies holds everything the router needs to wire routes
type Dependencies struct {
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Logger   *zap.Logger
}

// New builds the gin engine with middleware and all API routes registered
func New(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	setupValidatorOnce.Do(setupValidator)

	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		logger.GinMiddleware(deps.Logger),
		logger.Recovery(deps.Logger),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	products := v1.Group("/products")
	{
		products.POST("", deps.Products.Create)
		products.GET("/:id", deps.Products.Get)
		products.GET("/:id/quote", deps.Products.Quote)
		products.POST("/:id/stock", deps.Products.ReceiveStock)
	}

	v1.GET("/shops/:id/products", deps.Products.ListByShop)

	orders := v1.Group("/orders")
	{
		orders.POST("", deps.Orders.Create)
		orders.GET("", deps.Orders.List)
		orders.GET("/:id", deps.Orders.Get)
		orders.POST("/:id/confirm", deps.Orders.Confirm)
		orders.POST("/:id/cancel", deps.Orders.Cancel)
		orders.POST("/:id/pay", deps.Orders.Pay)
		orders.POST("/:id/process", deps.Orders.Process)
		orders.POST("/:id/ship", deps.Orders.Ship)
		orders.POST("/:id/deliver", deps.Orders.Deliver)
		orders.POST("/:id/refund", deps.Orders.Refund)
	}

	return engine
}
