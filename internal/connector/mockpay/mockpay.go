// Package mockpay is the reference connector adapter: a small JSON processor
// with bearer-token auth, used by the mockprocessor tool and the test suite.
// Real adapters follow the same shape, one Integration per flow.
package mockpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"finrota.com/app/internal/connector"
)

type Connector struct {
	BaseURL   string
	APIKey    string
	APISecret string

	tokenClient *http.Client
}

func New(baseURL, apiKey, apiSecret string) *Connector {
	return &Connector{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		APISecret:   apiSecret,
		tokenClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Connector) Name() string { return "mockpay" }

func (c *Connector) Integration(flow connector.Flow) (connector.Integration, bool) {
	switch flow {
	case connector.FlowExecute:
		return &executeFlow{c: c}, true
	case connector.FlowRSync:
		return &syncFlow{c: c}, true
	default:
		return nil, false
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Connector) FetchAccessToken(ctx context.Context, rd *connector.RouterData) (connector.AccessToken, error) {
	body, _ := json.Marshal(map[string]string{
		"client_id":     c.APIKey,
		"client_secret": c.APISecret,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/oauth/token", bytes.NewReader(body))
	if err != nil {
		return connector.AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.tokenClient.Do(req)
	if err != nil {
		return connector.AccessToken{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return connector.AccessToken{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return connector.AccessToken{}, err
	}
	return connector.AccessToken{Token: tr.AccessToken, ExpiresIn: tr.ExpiresIn, CreatedAt: time.Now()}, nil
}

// --- wire shapes ---

type refundRequest struct {
	Reference     string `json:"reference"`      // our refund id, processor-side idempotency key
	TransactionID string `json:"transaction_id"` // original payment on the processor
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason,omitempty"`
}

type refundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"` // succeeded | failed | pending | review
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mapStatus(s string) string {
	switch s {
	case "succeeded":
		return connector.RefundStatusSuccess
	case "failed":
		return connector.RefundStatusFailure
	case "review":
		return connector.RefundStatusManualReview
	default:
		return connector.RefundStatusPending
	}
}

func parseError(statusCode int, body []byte) (connector.ErrorResponse, error) {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return connector.ErrorResponse{}, err
	}
	if er.Error.Code == "" {
		return connector.ErrorResponse{}, fmt.Errorf("error response missing code")
	}
	return connector.ErrorResponse{Code: er.Error.Code, Message: er.Error.Message, StatusCode: statusCode}, nil
}

func parseRefund(body []byte) (connector.RefundResponseData, error) {
	var rr refundResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return connector.RefundResponseData{}, err
	}
	if rr.RefundID == "" {
		return connector.RefundResponseData{}, fmt.Errorf("response missing refund_id")
	}
	return connector.RefundResponseData{
		ConnectorRefundID: rr.RefundID,
		Status:            mapStatus(rr.Status),
		Amount:            rr.Amount,
		Currency:          rr.Currency,
		RawStatus:         rr.Status,
	}, nil
}

// --- Execute flow ---

type executeFlow struct{ c *Connector }

func (f *executeFlow) GetContentType() string { return "application/json" }

func (f *executeFlow) GetHeaders(ctx context.Context, rd *connector.RouterData) (http.Header, error) {
	_ = ctx
	h := http.Header{}
	h.Set("Content-Type", f.GetContentType())
	if rd.AccessToken != nil {
		h.Set("Authorization", "Bearer "+rd.AccessToken.Token)
	}
	h.Set("Idempotency-Key", rd.Request.RefundID)
	return h, nil
}

func (f *executeFlow) GetURL(rd *connector.RouterData) (string, error) {
	_ = rd
	return f.c.BaseURL + "/v1/refunds", nil
}

func (f *executeFlow) GetRequestBody(rd *connector.RouterData) ([]byte, error) {
	if rd.Request.ConnectorTransactionID == "" {
		return nil, fmt.Errorf("missing connector transaction id")
	}
	return json.Marshal(refundRequest{
		Reference:     rd.Request.RefundID,
		TransactionID: rd.Request.ConnectorTransactionID,
		Amount:        rd.Request.Amount,
		Currency:      rd.Request.Currency,
		Reason:        rd.Request.Reason,
	})
}

func (f *executeFlow) BuildRequest(ctx context.Context, rd *connector.RouterData) (*http.Request, error) {
	url, err := f.GetURL(rd)
	if err != nil {
		return nil, err
	}
	body, err := f.GetRequestBody(rd)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	headers, err := f.GetHeaders(ctx, rd)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	return req, nil
}

func (f *executeFlow) HandleResponse(rd *connector.RouterData, statusCode int, body []byte) (connector.RefundResponseData, error) {
	_, _ = rd, statusCode
	return parseRefund(body)
}

func (f *executeFlow) GetErrorResponse(statusCode int, body []byte) (connector.ErrorResponse, error) {
	return parseError(statusCode, body)
}

// --- RSync flow ---

type syncFlow struct{ c *Connector }

func (f *syncFlow) GetContentType() string { return "application/json" }

func (f *syncFlow) GetHeaders(ctx context.Context, rd *connector.RouterData) (http.Header, error) {
	_ = ctx
	h := http.Header{}
	if rd.AccessToken != nil {
		h.Set("Authorization", "Bearer "+rd.AccessToken.Token)
	}
	return h, nil
}

func (f *syncFlow) GetURL(rd *connector.RouterData) (string, error) {
	if rd.Request.ConnectorRefundID == "" {
		return "", fmt.Errorf("missing connector refund id")
	}
	return f.c.BaseURL + "/v1/refunds/" + rd.Request.ConnectorRefundID, nil
}

func (f *syncFlow) GetRequestBody(rd *connector.RouterData) ([]byte, error) {
	_ = rd
	return nil, nil
}

func (f *syncFlow) BuildRequest(ctx context.Context, rd *connector.RouterData) (*http.Request, error) {
	url, err := f.GetURL(rd)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	headers, err := f.GetHeaders(ctx, rd)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	return req, nil
}

func (f *syncFlow) HandleResponse(rd *connector.RouterData, statusCode int, body []byte) (connector.RefundResponseData, error) {
	_, _ = rd, statusCode
	return parseRefund(body)
}

func (f *syncFlow) GetErrorResponse(statusCode int, body []byte) (connector.ErrorResponse, error) {
	return parseError(statusCode, body)
}
