package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/config"
	adminhandlers "github.com/storefront-next/internal/http/handlers/admin"
	merchanthandlers "github.com/storefront-next/internal/http/handlers/merchant"
	publichandlers "github.com/storefront-next/internal/http/handlers/public"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/商家/后台分组）
	publicHandler := publichandlers.New(c)
	merchantHandler := merchanthandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sf"
	}
	var redisClient *redis.Client
	if c.Cache.Enabled() {
		redisClient = c.Cache.Client()
	}
	calculateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:discount_calculate", redisPrefix),
		WindowSeconds: cfg.RateLimit.DiscountCalculate.WindowSeconds,
		MaxRequests:   cfg.RateLimit.DiscountCalculate.MaxRequests,
		Message:       "too many discount calculations",
	}
	cartRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart", redisPrefix),
		WindowSeconds: cfg.RateLimit.Cart.WindowSeconds,
		MaxRequests:   cfg.RateLimit.Cart.MaxRequests,
		Message:       "too many cart updates",
	}
	cartLimit := RateLimitMiddleware(redisClient, cartRule, KeyByUser)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)
		apiV1.GET("/products/:id/discounts", publicHandler.ListProductDiscounts)
		apiV1.GET("/categories", publicHandler.ListCategories)
		apiV1.GET("/categories/:id", publicHandler.GetCategory)
		apiV1.GET("/discounts/active", publicHandler.ListActiveDiscounts)
		apiV1.POST("/discounts/calculate", RateLimitMiddleware(redisClient, calculateRule, KeyByIPAndJSONField("product_id")), publicHandler.CalculateDiscount)
		apiV1.GET("/order-statuses", publicHandler.ListOrderStatuses)
		apiV1.GET("/payment-statuses", publicHandler.ListPaymentStatuses)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(c.Tokens))
		{
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", cartLimit, publicHandler.AddCartItems)
			user.PATCH("/cart/items/:id", cartLimit, publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", cartLimit, publicHandler.RemoveCartItem)
			user.PUT("/cart/shipping", cartLimit, publicHandler.UpdateCartShipping)
			user.POST("/cart/checkout", cartLimit, publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/:id/items", publicHandler.ListOrderItems)
			user.GET("/orders/:id/history", publicHandler.ListOrderHistory)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.GET("/notifications", publicHandler.ListNotifications)
			user.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)
		}

		// 商家接口
		merchant := apiV1.Group("/vendor")
		merchant.Use(JWTAuthMiddleware(c.Tokens), RoleAuthzMiddleware(c.AuthzService))
		{
			merchant.GET("/products", merchantHandler.ListProducts)
			merchant.POST("/products", merchantHandler.CreateProduct)
			merchant.PUT("/products/:id", merchantHandler.UpdateProduct)
			merchant.DELETE("/products/:id", merchantHandler.DeleteProduct)
			merchant.GET("/products/:id/price-history", merchantHandler.ProductPriceHistory)
			merchant.GET("/products/:id/discounts", merchantHandler.ProductDiscounts)
			merchant.GET("/discounts", merchantHandler.ListDiscounts)
			merchant.POST("/discounts", merchantHandler.CreateDiscount)
			merchant.GET("/discounts/stats", merchantHandler.DiscountStats)
			merchant.GET("/discounts/:id", merchantHandler.GetDiscount)
			merchant.PUT("/discounts/:id", merchantHandler.UpdateDiscount)
			merchant.DELETE("/discounts/:id", merchantHandler.DeleteDiscount)
			merchant.POST("/discounts/:id/cancel", merchantHandler.CancelDiscount)
			merchant.GET("/discount-usages", merchantHandler.ListDiscountUsages)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(c.Tokens), RoleAuthzMiddleware(c.AuthzService))
		{
			// 订单管理
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id", adminHandler.UpdateOrderDetails)
			admin.GET("/orders/:id/items", adminHandler.ListOrderItems)
			admin.GET("/orders/:id/history", adminHandler.ListOrderHistory)
			admin.POST("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/payment-status", adminHandler.UpdatePaymentStatus)
			admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)

			// 状态字典
			admin.POST("/order-statuses", adminHandler.CreateOrderStatus)
			admin.PUT("/order-statuses/:code", adminHandler.UpdateOrderStatusLookup)
			admin.POST("/payment-statuses", adminHandler.CreatePaymentStatus)
			admin.PUT("/payment-statuses/:code", adminHandler.UpdatePaymentStatusLookup)

			// 分类与折扣
			admin.GET("/categories", adminHandler.ListCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.POST("/discounts/refresh-statuses", adminHandler.RefreshDiscountStatuses)

			// 权限管理
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r))
			})
		}
	}

	// 指标
	if cfg.Metrics.Enabled && c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 列出受角色授权保护的路由
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") && !strings.HasPrefix(item.Path, "/api/v1/vendor/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	return segments[0] + "." + segments[1]
}
