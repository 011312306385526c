package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims 访问凭证声明，凭证与订单和文章双向绑定
type TokenClaims struct {
	PostID  string `json:"post_id"`
	TradeNo string `json:"trade_no"`
	jwt.RegisteredClaims
}

// TokenService 访问凭证服务
// 凭证为HS256签名的JWT，校验不查库，密钥和有效期决定一切
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService 创建访问凭证服务
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue 为已支付订单签发访问凭证
func (s *TokenService) Issue(postID, tradeNo string) (string, error) {
	now := s.now()
	claims := TokenClaims{
		PostID:  postID,
		TradeNo: tradeNo,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发访问凭证失败: %w", err)
	}
	return signed, nil
}

// Verify 校验访问凭证并返回声明
// 签名不符、过期、算法不符都归为同一种无效，不向调用方泄露细节
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.PostID == "" || claims.TradeNo == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
