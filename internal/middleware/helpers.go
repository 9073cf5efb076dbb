// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetAccountID gets the account ID from context or panics
func MustGetAccountID(c *gin.Context) int64 {
	accountID, exists := GetAccountID(c)
	if !exists {
		panic("account_id not found in context")
	}
	return accountID
}

// GetEmail gets the authenticated email from context
func GetEmail(c *gin.Context) string {
	email, exists := c.Get("email")
	if !exists {
		return ""
	}

	v, ok := email.(string)
	if !ok {
		return ""
	}
	return v
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("account_id")
	return exists
}

// IsVerified checks whether the authenticated identity passed verification
func IsVerified(c *gin.Context) bool {
	verified, exists := c.Get("verified")
	if !exists {
		return false
	}

	v, ok := verified.(bool)
	return ok && v
}
