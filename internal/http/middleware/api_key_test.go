package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrota.com/app/internal/modules/merchants"
)

type staticMerchants map[string]merchants.MerchantAccount

func (s staticMerchants) FindByID(ctx context.Context, id string) (merchants.MerchantAccount, error) {
	m, ok := s[id]
	if !ok {
		return merchants.MerchantAccount{}, merchants.ErrNotFound
	}
	return m, nil
}

func authTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := merchants.HashKey("s3cret")
	require.NoError(t, err)

	accounts := staticMerchants{
		"merchant_abc": {ID: "merchant_abc", Name: "Test Merchant", APIKeyHash: hash},
	}

	r := gin.New()
	r.Use(APIKeyAuth(accounts))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := CurrentMerchantID(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestAPIKeyAuthValid(t *testing.T) {
	r := authTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderAPIKey, "merchant_abc.s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "merchant_abc", w.Body.String())
}

func TestAPIKeyAuthRejects(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"missing key", ""},
		{"no separator", "merchant_abcs3cret"},
		{"empty secret", "merchant_abc."},
		{"wrong secret", "merchant_abc.wrong"},
		{"unknown merchant", "merchant_zzz.s3cret"},
	}

	r := authTestRouter(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.key != "" {
				req.Header.Set(HeaderAPIKey, tc.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "IR_401")
		})
	}
}
