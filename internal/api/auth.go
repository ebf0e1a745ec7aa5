package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const identityKey = "employee_id"

// tokenClaims is the JWT payload for a logged-in employee.
type tokenClaims struct {
	EmployeeID int64 `json:"employee_id"`
	jwt.RegisteredClaims
}

// issueToken signs a token for an employee.
func issueToken(secret string, employeeID int64, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// authMiddleware validates the bearer token and stores the employee id
// in the request context.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing bearer token"})
			return
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired token"})
			return
		}

		c.Set(identityKey, claims.EmployeeID)
		c.Next()
	}
}

// currentEmployeeID reads the authenticated employee id set by
// authMiddleware.
func currentEmployeeID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
