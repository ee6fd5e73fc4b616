package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/phenrril/storefront/internal/usecase"
	"github.com/phenrril/storefront/internal/validation"
)

// Options configures the HTTP layer itself; behaviour lives in the use cases.
type Options struct {
	IdentitySecret []byte
	AllowedOrigins []string
	UploadsDir     string
	UploadsPrefix  string

	// CheckoutPerMinute limits order placement per caller; zero disables it.
	CheckoutPerMinute int
}

type Server struct {
	engine    *gin.Engine
	checkout  gin.HandlerFunc
	catalog   *usecase.CatalogUC
	cart      *usecase.CartUC
	orders    *usecase.OrderUC
	admin     *usecase.AdminUC
	customers *usecase.CustomerUC
	validate  *validatorv10.Validate
	secret    []byte
}

func New(opts Options, catalog *usecase.CatalogUC, cart *usecase.CartUC, orders *usecase.OrderUC, admin *usecase.AdminUC, customers *usecase.CustomerUC) http.Handler {
	s := &Server{
		engine:    gin.New(),
		catalog:   catalog,
		cart:      cart,
		orders:    orders,
		admin:     admin,
		customers: customers,
		validate:  validation.New(),
		secret:    opts.IdentitySecret,
		checkout:  rateLimit(opts.CheckoutPerMinute),
	}
	s.engine.MaxMultipartMemory = 32 << 20

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 || wildcard(opts.AllowedOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	s.engine.Use(requestID(), requestLogger(), gin.CustomRecovery(recovered), cors.New(corsCfg))
	if opts.UploadsDir != "" {
		prefix := opts.UploadsPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		s.engine.Static(prefix, opts.UploadsDir)
	}

	s.routes()
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api", s.identity())

	api.GET("/health", s.handleHealth)

	api.GET("/categories", s.handleListCategories)
	api.GET("/products", s.handleListProducts)
	api.GET("/products/:id", s.handleGetProduct)
	api.GET("/stores", s.handleListStores)

	user := api.Group("", requireUser())
	user.GET("/profile", s.handleProfile)
	user.GET("/cart", s.handleGetCart)
	user.POST("/cart", s.handleAddToCart)
	user.DELETE("/cart", s.handleRemoveFromCart)
	user.GET("/wishlist", s.handleListWishlist)
	user.POST("/wishlist", s.handleToggleWishlist)
	user.POST("/orders", s.checkout, s.handleCreateOrder)
	user.GET("/orders", s.handleListOrders)
	user.GET("/orders/:id", s.handleGetOrder)

	adm := api.Group("", requireAdmin())
	adm.POST("/categories", s.handleCreateCategory)
	adm.POST("/products", s.handleCreateProduct)
	adm.PATCH("/products/:id", s.handleUpdateProduct)
	adm.DELETE("/products/:id", s.handleDeleteProduct)
	adm.POST("/products/:id/toggle-deal", s.handleToggleDeal)
	adm.GET("/stores/mine", s.handleMyStore)
	adm.POST("/stores", s.handleCreateStore)
	adm.POST("/orders/:id/status", s.handleUpdateOrderStatus)
	adm.GET("/admin/users", s.handleListUsers)
	adm.POST("/admin/users", s.handleAddUser)
	adm.GET("/admin/products/export", s.handleExportProducts)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func wildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
