package app

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apperrors "readify/common/errors"
	"readify/common/logger"
	"readify/config"
	"readify/controllers"
	"readify/database"
	"readify/middleware"
	aws_pkg "readify/pkg/aws"
	"readify/repository"
	"readify/routes"
	"readify/services"
)

const requestTimeout = 30 * time.Second

// Services is every domain service, shared by the HTTP layer, the order
// events consumer and the seed command.
type Services struct {
	Auth       services.AuthService
	Profile    services.ProfileService
	Accounts   services.AccountService
	Staff      services.StaffService
	Books      services.BookService
	Categories services.CategoryService
	Stock      services.StockService
	Receipts   services.ReceiptService
	Suppliers  services.SupplierService
	Promotions services.PromotionService
	Cart       services.CartService
	Wishlist   services.WishlistService
	Media      services.MediaService
}

// App owns the process-wide connections and the wired service graph.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client
	AWS     sdkaws.Config
	Metrics *aws_pkg.MetricsClient

	Services    Services
	OrderEvents *services.OrderEventHandler
	RateLimiter *middleware.RateLimiter
}

// New connects to Postgres and Redis and wires every service.
func New(ctx context.Context, cfg *config.Config, awsCfg sdkaws.Config, log *zap.Logger) (*App, error) {
	db, err := database.ConnectPostgres(ctx, cfg.PostgresDSN(), log)
	if err != nil {
		return nil, err
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		_ = database.ClosePostgres(db)
		return nil, err
	}
	log.Info("Connected to Redis")

	a := &App{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Redis:       rdb,
		AWS:         awsCfg,
		Metrics:     aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.CloudWatchEnabled),
		RateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 5*time.Minute),
	}
	a.wire()
	return a, nil
}

func (a *App) wire() {
	cfg, log := a.Config, a.Logger

	accounts := repository.NewGormAccountRepository(a.DB)
	tokens := repository.NewGormRefreshTokenRepository(a.DB)
	books := repository.NewGormBookRepository(a.DB)
	categories := repository.NewGormCategoryRepository(a.DB)
	wishlist := repository.NewGormWishlistRepository(a.DB)
	promotions := repository.NewGormPromotionRepository(a.DB)
	orders := repository.NewGormOrderRepository(a.DB)
	media := repository.NewGormMediaRepository(a.DB)
	suppliers := repository.NewGormSupplierRepository(a.DB)
	stockLog := repository.NewGormStockLogRepository(a.DB)
	stock := repository.NewDynamoStockRepository(aws_pkg.NewDynamoClient(a.AWS), cfg.StockTable, cfg.LowStockDefault)
	carts := repository.NewRedisCartStore(a.Redis, cfg.CartTTL)
	cache := repository.NewBookCache(a.Redis, cfg.CacheTTL, log)

	publisher := services.NewSNSEventPublisher(aws_pkg.NewSNSClient(a.AWS), cfg.EventsTopicARN, log)
	guard := services.NewRedisItemGuard(a.Redis, cfg.GuardTTL, log)
	passwords := services.NewPasswordValidator()
	jwt := services.NewTokenService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	s := &a.Services
	s.Auth = services.NewAuthService(accounts, tokens, jwt, passwords, log)
	s.Profile = services.NewProfileService(accounts, tokens, s.Auth, passwords, log)
	s.Accounts = services.NewAccountService(accounts, tokens, passwords, log)
	s.Staff = services.NewStaffService(accounts, passwords, log)
	s.Books = services.NewBookService(books, categories, stock, cache, a.Metrics, log)
	s.Categories = services.NewCategoryService(categories, cache, log)
	s.Stock = services.NewStockService(stock, stockLog, books, publisher, a.Metrics, cfg.LowStockDefault, log)
	s.Receipts = services.NewReceiptService(suppliers, books, stock, stockLog, publisher, a.Metrics, log)
	s.Suppliers = services.NewSupplierService(suppliers, log)
	s.Promotions = services.NewPromotionService(promotions, log)
	s.Cart = services.NewCartService(carts, books, stock, s.Stock, s.Promotions, orders, guard, publisher, a.Metrics, log)
	s.Wishlist = services.NewWishlistService(wishlist, books, stock, s.Cart, guard, log)
	s.Media = services.NewMediaService(media, aws_pkg.NewS3Store(a.AWS, cfg.MediaBucket, cfg.MediaPublicBaseURL), log)

	a.OrderEvents = services.NewOrderEventHandler(orders, s.Stock, cache, a.Metrics, log)
}

// Router builds the gin engine with the full middleware chain.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(a.Logger),
		middleware.Metrics(a.Metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(a.Config.AllowedOrigins),
		a.RateLimiter.Middleware(),
		middleware.Timeout(requestTimeout),
		apperrors.ErrorMiddleware(),
	)

	authController := controllers.NewAuthController(a.Services.Auth, controllers.CookieSettings{
		Domain: a.Config.CookieDomain,
		Secure: a.Config.CookieSecure,
	})
	routes.Register(r, &routes.Controllers{
		Auth:      authController,
		Profile:   controllers.NewProfileController(a.Services.Profile, authController),
		Book:      controllers.NewBookController(a.Services.Books),
		Category:  controllers.NewCategoryController(a.Services.Categories),
		Cart:      controllers.NewCartController(a.Services.Cart),
		Wishlist:  controllers.NewWishlistController(a.Services.Wishlist),
		Promotion: controllers.NewPromotionController(a.Services.Promotions),
		Account:   controllers.NewAccountController(a.Services.Accounts),
		Staff:     controllers.NewStaffController(a.Services.Staff),
		Media:     controllers.NewMediaController(a.Services.Media),
		Stock:     controllers.NewStockController(a.Services.Stock, a.Services.Receipts),
		Supplier:  controllers.NewSupplierController(a.Services.Suppliers),
	}, a.Services.Auth)
	return r
}

// OrderEventsConsumer returns nil when no queue is configured.
func (a *App) OrderEventsConsumer() *aws_pkg.SQSConsumer {
	if a.Config.OrderEventsQueue == "" {
		return nil
	}
	return aws_pkg.NewSQSConsumer(a.AWS, a.Config.OrderEventsQueue, a.Logger)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var firstErr error
	if err := a.Redis.Close(); err != nil {
		firstErr = fmt.Errorf("close redis: %w", err)
	}
	if err := database.ClosePostgres(a.DB); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close postgres: %w", err)
	}
	return firstErr
}
