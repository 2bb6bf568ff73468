package api

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	products  *service.ProductLedger
	sales     *service.SaleService
	suppliers *service.SupplierService
	analytics *service.AnalyticsService
	monitor   *service.LowStockMonitor
	auth      *service.AuthService

	readiness   []Pinger
	env         string
	production  bool
	frontendURL string
	started     time.Time
}

// Services groups the handler's collaborators
type Services struct {
	Products  *service.ProductLedger
	Sales     *service.SaleService
	Suppliers *service.SupplierService
	Analytics *service.AnalyticsService
	Monitor   *service.LowStockMonitor
	Auth      *service.AuthService
}

// NewHandler creates a new HTTP handler. readiness lists the dependencies
// /ready pings.
func NewHandler(svc Services, env, frontendURL string, readiness ...Pinger) *Handler {
	useJSONFieldNames()
	return &Handler{
		products:    svc.Products,
		sales:       svc.Sales,
		suppliers:   svc.Suppliers,
		analytics:   svc.Analytics,
		monitor:     svc.Monitor,
		auth:        svc.Auth,
		readiness:   readiness,
		env:         env,
		production:  env == "production",
		frontendURL: frontendURL,
		started:     time.Now(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(util.GetLogger()))
	router.Use(cors(h.frontendURL))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", h.apiHealth)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/me", h.protect(), h.me)
		authGroup.GET("/users", h.protect(), h.authorize(models.RoleAdmin), h.listUsers)
	}

	h.productRoutes(api.Group("/products", h.protect()))
	h.productRoutes(api.Group("/inventory", h.protect()))
	h.saleRoutes(api.Group("/sales", h.protect()))
	h.saleRoutes(api.Group("/billing", h.protect()))

	suppliers := api.Group("/suppliers", h.protect())
	{
		suppliers.GET("", h.listSuppliers)
		suppliers.GET("/:id", h.getSupplier)
		suppliers.POST("", h.authorize(models.RoleAdmin), h.createSupplier)
		suppliers.PUT("/:id", h.authorize(models.RoleAdmin), h.updateSupplier)
		suppliers.DELETE("/:id", h.authorize(models.RoleAdmin), h.deleteSupplier)
	}

	analytics := api.Group("/analytics", h.protect(), h.authorize(models.RoleAdmin))
	{
		analytics.GET("/sales", h.salesAnalytics)
		analytics.GET("/inventory", h.inventoryAnalytics)
		analytics.GET("/dashboard", h.dashboard)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "fail",
			"message": "Not found - " + c.Request.URL.Path,
		})
	})
}

func (h *Handler) productRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listProducts)
	rg.GET("/low-stock/check", h.lowStock)
	rg.GET("/:id", h.getProduct)
	rg.POST("", h.authorize(models.RoleAdmin), h.createProduct)
	rg.PUT("/:id", h.updateProduct)
	rg.PUT("/:id/stock", h.updateStock)
	rg.DELETE("/:id", h.authorize(models.RoleAdmin), h.deleteProduct)
}

func (h *Handler) saleRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listSales)
	rg.GET("/:id", h.getSale)
	rg.POST("", h.createSale)
	rg.DELETE("/:id", h.deleteSale)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck fails while any dependency is unreachable
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for _, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Unix(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) apiHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(h.started).Seconds(),
		"environment": h.env,
	})
}
