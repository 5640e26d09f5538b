package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSecretMissing 未配置签名密钥
	ErrSecretMissing = errors.New("jwt secret is not configured")
	// ErrTokenInvalid 令牌无效或已过期
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims 访问令牌声明，主体为外部身份系统签发的用户 ID 与角色
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer 令牌签发与解析
type Issuer struct {
	secret      []byte
	issuer      string
	expireHours int
	now         func() time.Time
}

// NewIssuer 根据 JWT 配置创建签发器
func NewIssuer(cfg config.JWTConfig) *Issuer {
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return &Issuer{
		secret:      []byte(cfg.SecretKey),
		issuer:      strings.TrimSpace(cfg.Issuer),
		expireHours: hours,
		now:         time.Now,
	}
}

// Generate 生成访问令牌
func (i *Issuer) Generate(userID uint, role string) (string, time.Time, error) {
	if i == nil || len(i.secret) == 0 {
		return "", time.Time{}, ErrSecretMissing
	}
	now := i.now()
	expiresAt := now.Add(time.Duration(i.expireHours) * time.Hour)
	claims := Claims{
		UserID: userID,
		Role:   NormalizeRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse 解析并校验访问令牌
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if i == nil || len(i.secret) == 0 {
		return nil, ErrSecretMissing
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	parser := jwt.NewParser(opts...)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	claims.Role = NormalizeRole(claims.Role)
	return claims, nil
}

// NormalizeRole 未知角色按顾客处理
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case constants.RoleAdmin:
		return constants.RoleAdmin
	case constants.RoleVendor:
		return constants.RoleVendor
	default:
		return constants.RoleCustomer
	}
}
