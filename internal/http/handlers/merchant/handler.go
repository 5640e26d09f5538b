package merchant

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 商家接口处理器入口
// 说明：商家只能管理自己的商品与折扣，管理员可访问全部。
type Handler struct {
	*provider.Container
}

// New 创建商家处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondServiceError(c, err, fallbackMsg)
}
