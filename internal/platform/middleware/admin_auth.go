package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole 管理端 token 的角色聲明.
const AdminRole = "admin"

// AdminClaims 管理端 JWT 聲明.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssueAdminToken 簽發 HS256 管理端 token.
func IssueAdminToken(secret []byte, issuer, subject string, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Role: AdminRole,
	})

	return token.SignedString(secret)
}

// ParseAdminToken 驗證簽章、簽發者與角色.
func ParseAdminToken(tokenString string, secret []byte, issuer string) (*AdminClaims, error) {
	claims := &AdminClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != AdminRole {
		return nil, errors.New("token is not an admin token")
	}

	return claims, nil
}

// AdminAuth 管理端點認證中間件；未啟用時直接放行.
func AdminAuth(secret []byte, issuer string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(authHeader, " ")
		if authHeader == "" || !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}

		claims, err := ParseAdminToken(token, secret, issuer)
		if err != nil {
			abortUnauthorized(c, "Invalid admin token")
			return
		}

		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      message,
		"success":    false,
		"request_id": GetRequestID(c),
	})
}
