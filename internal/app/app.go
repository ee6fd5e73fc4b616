package app

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/httpserver"
	"github.com/phenrril/storefront/internal/adapters/notify"
	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/adapters/storage/localfs"
	"github.com/phenrril/storefront/internal/config"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type App struct {
	DB     *gorm.DB
	Config *config.Config

	CatalogUC  *usecase.CatalogUC
	CartUC     *usecase.CartUC
	OrderUC    *usecase.OrderUC
	AdminUC    *usecase.AdminUC
	CustomerUC *usecase.CustomerUC

	Storage    domain.FileStorage
	Dispatcher *notify.Dispatcher
}

func NewApp(ctx context.Context, db *gorm.DB, cfg *config.Config) (*App, error) {
	prodRepo := postgres.NewProductRepo(db)
	storeRepo := postgres.NewStoreRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	custRepo := postgres.NewCustomerRepo(db)

	_ = os.MkdirAll(cfg.StorageDir, 0755)
	storage := localfs.New(cfg.StorageDir, cfg.StoragePublicPrefix)

	sinks, err := notificationSinks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, sinks...)

	app := &App{DB: db, Config: cfg, Storage: storage, Dispatcher: dispatcher}
	app.CatalogUC = &usecase.CatalogUC{
		Categories:         postgres.NewCategoryRepo(db),
		Products:           prodRepo,
		Stores:             storeRepo,
		Storage:            storage,
		AutoCreateCategory: cfg.AutoCreateCategory,
	}
	app.CartUC = &usecase.CartUC{Cart: cartRepo, Wishlist: postgres.NewWishlistRepo(db), Products: prodRepo}
	app.OrderUC = &usecase.OrderUC{
		UoW:          postgres.NewUnitOfWork(db),
		Orders:       orderRepo,
		Products:     prodRepo,
		Cart:         cartRepo,
		Notifier:     dispatcher,
		Policy:       domain.TransitionPolicy{CancelFromAnyState: cfg.CancelFromAnyState},
		NumberPrefix: cfg.OrderNumberPrefix,
		MaxAttempts:  cfg.OrderNumberAttempts,
	}
	app.AdminUC = &usecase.AdminUC{Orders: orderRepo, Products: prodRepo, Stores: storeRepo, Customers: custRepo}
	app.CustomerUC = &usecase.CustomerUC{Customers: custRepo}

	if cfg.IdentitySecret == "" {
		log.Warn().Msg("IDENTITY_JWT_SECRET not set, every bearer token will be rejected")
	}
	return app, nil
}

// notificationSinks picks the order notification channels from config.
// With none configured, notifications only go to the log.
func notificationSinks(ctx context.Context, cfg *config.Config) ([]domain.NotificationSink, error) {
	var sinks []domain.NotificationSink
	if cfg.TelegramToken != "" && len(cfg.TelegramChatIDs) > 0 {
		sinks = append(sinks, notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatIDs, cfg.TelegramAPIBase))
	}
	if cfg.NotifySQSQueue != "" {
		client, err := notify.NewSQSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notify.NewSQSSink(client, cfg.NotifySQSQueue))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, notify.LogSink{})
	}
	return sinks, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Options{
		IdentitySecret:    []byte(a.Config.IdentitySecret),
		AllowedOrigins:    a.Config.AllowedOrigins,
		UploadsDir:        a.Config.StorageDir,
		UploadsPrefix:     a.Config.StoragePublicPrefix,
		CheckoutPerMinute: a.Config.OrderRatePerMinute,
	}, a.CatalogUC, a.CartUC, a.OrderUC, a.AdminUC, a.CustomerUC)
}

// Migrate creates the schema. On postgres it also adds the indexes gorm
// tags cannot express.
func (a *App) Migrate() error {
	if err := postgres.Migrate(a.DB); err != nil {
		return err
	}
	if a.DB.Dialector.Name() != "postgres" {
		return nil
	}
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_products_tags_gin ON products USING gin (tags)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_customers_email_lower ON customers (LOWER(email))").Error
	return nil
}

// Close waits for in-flight notifications.
func (a *App) Close(ctx context.Context) error {
	return a.Dispatcher.Close(ctx)
}
