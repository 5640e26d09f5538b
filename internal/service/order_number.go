package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/storefront-next/internal/config"
)

const (
	defaultOrderNumberPrefix   = "ORD"
	defaultOrderNumberDigits   = 10
	defaultOrderNumberAttempts = 5
)

// OrderNumberPolicy 订单号规则
type OrderNumberPolicy struct {
	Prefix      string
	Digits      int
	MaxAttempts int
}

// NewOrderNumberPolicy 从配置构建订单号规则
func NewOrderNumberPolicy(cfg config.OrderConfig) OrderNumberPolicy {
	policy := OrderNumberPolicy{
		Prefix:      strings.TrimSpace(cfg.NumberPrefix),
		Digits:      cfg.NumberDigits,
		MaxAttempts: cfg.NumberMaxAttempts,
	}
	if policy.Prefix == "" {
		policy.Prefix = defaultOrderNumberPrefix
	}
	if policy.Digits <= 0 || policy.Digits > 17 {
		policy.Digits = defaultOrderNumberDigits
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaultOrderNumberAttempts
	}
	return policy
}

// generateOrderNumber 前缀 + 随机数字，冲突时重试
func generateOrderNumber(policy OrderNumberPolicy, exists func(string) (bool, error)) (string, error) {
	if policy.Digits <= 0 {
		policy = NewOrderNumberPolicy(config.OrderConfig{})
	}
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		var b strings.Builder
		b.WriteString(policy.Prefix)
		for i := 0; i < policy.Digits; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(10))
			if err != nil {
				return "", err
			}
			b.WriteByte(byte('0' + n.Int64()))
		}
		candidate := b.String()
		if exists == nil {
			return candidate, nil
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrOrderNumberExhausted
}
