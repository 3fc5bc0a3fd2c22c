package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finrota.com/app/internal/modules/merchants"
)

const (
	HeaderAPIKey     = "X-Api-Key"
	CtxKeyMerchantID = "merchant_id"
)

type MerchantLookup interface {
	FindByID(ctx context.Context, id string) (merchants.MerchantAccount, error)
}

// APIKeyAuth resolves the merchant from "<merchant_id>.<secret>" and puts the
// merchant id in the gin context. Everything under /api requires it.
func APIKeyAuth(accounts MerchantLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		merchantID, secret, ok := splitKey(key)
		if !ok {
			unauthorized(c)
			return
		}

		acct, err := accounts.FindByID(c.Request.Context(), merchantID)
		if err != nil || !acct.VerifyKey(secret) {
			unauthorized(c)
			return
		}

		c.Set(CtxKeyMerchantID, acct.ID)
		c.Next()
	}
}

func CurrentMerchantID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxKeyMerchantID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func splitKey(key string) (merchantID, secret string, ok bool) {
	merchantID, secret, found := strings.Cut(key, ".")
	if !found || merchantID == "" || secret == "" {
		return "", "", false
	}
	return merchantID, secret, true
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "invalid or missing API key",
		"code":       "IR_401",
		"request_id": GetRequestID(c),
	})
}
