package provider

import (
	"errors"
	"time"

	"github.com/storefront-next/internal/auth"
	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Cache       *cache.Store
	Metrics     *metrics.Metrics
	Tokens      *auth.Issuer

	// Repositories
	OrderRepo         repository.OrderRepository
	ProductRepo       repository.ProductRepository
	CategoryRepo      repository.CategoryRepository
	LookupRepo        repository.StatusLookupRepository
	DiscountRepo      repository.DiscountRepository
	DiscountUsageRepo repository.DiscountUsageRepository
	PriceHistoryRepo  repository.PriceHistoryRepository
	NotificationRepo  repository.NotificationRepository

	// Services
	AuthzService        *authz.Service
	NotificationService *service.NotificationService
	LookupService       *service.LookupService
	CategoryService     *service.CategoryService
	ProductService      *service.ProductService
	DiscountService     *service.DiscountService
	CartService         *service.CartService
	OrderService        *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is nil")
	}

	// 初始化队列客户端，失败时降级为同步落库
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		Cache:       cache.NewStore(&cfg.Redis),
		Tokens:      auth.NewIssuer(cfg.JWT),
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.LookupRepo = repository.NewStatusLookupRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.DiscountUsageRepo = repository.NewDiscountUsageRepository(db)
	c.PriceHistoryRepo = repository.NewPriceHistoryRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	pricing := service.NewPricingPolicy(c.Config.Pricing)
	numbers := service.NewOrderNumberPolicy(c.Config.Order)
	lookupTTL := time.Duration(c.Config.Cache.LookupTTLSeconds) * time.Second

	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)
	c.LookupService = service.NewLookupService(c.LookupRepo, c.Cache, lookupTTL)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo, c.PriceHistoryRepo)
	c.DiscountService = service.NewDiscountService(c.DiscountRepo, c.ProductRepo, c.CategoryRepo, c.DiscountUsageRepo, c.PriceHistoryRepo)
	c.CartService = service.NewCartService(c.OrderRepo, c.ProductRepo, c.LookupRepo, pricing, numbers, c.Metrics)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.LookupRepo,
		c.DiscountRepo,
		c.DiscountUsageRepo,
		c.NotificationService,
		pricing,
		c.Metrics,
	)
	return nil
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := c.Cache.Close(); err != nil {
		logger.Warnw("provider_close_cache_failed", "error", err)
	}
}
