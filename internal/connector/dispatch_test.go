package connector_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrota.com/app/internal/connector"
	"finrota.com/app/internal/connector/mockpay"
)

type processorStub struct {
	tokenCalls  atomic.Int64
	refundCalls atomic.Int64

	refundStatus int
	refundBody   string
	refundDelay  time.Duration
}

func (p *processorStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok_test","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/refunds", func(w http.ResponseWriter, r *http.Request) {
		p.refundCalls.Add(1)
		if p.refundDelay > 0 {
			time.Sleep(p.refundDelay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.refundStatus)
		fmt.Fprint(w, p.refundBody)
	})
	mux.HandleFunc("/v1/refunds/", func(w http.ResponseWriter, r *http.Request) {
		p.refundCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.refundStatus)
		fmt.Fprint(w, p.refundBody)
	})
	return mux
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func executeRouterData() *connector.RouterData {
	return &connector.RouterData{
		Flow:                connector.FlowExecute,
		Connector:           "mockpay",
		MerchantID:          "merchant_abc",
		MerchantConnectorID: "mca_1",
		RefundID:            "ref_1",
		PaymentID:           "pay_1",
		Request: connector.RefundRequestData{
			RefundID:               "ref_1",
			ConnectorTransactionID: "txn_900",
			Amount:                 2500,
			PaymentAmount:          10000,
			Currency:               "EUR",
		},
	}
}

func TestDispatchSuccess(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusOK,
		refundBody:   `{"refund_id":"R-1","status":"succeeded","amount":2500,"currency":"EUR"}`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	err := d.Dispatch(context.Background(), conn, rd)
	require.NoError(t, err)

	require.True(t, rd.Succeeded())
	assert.Nil(t, rd.Error)
	assert.Equal(t, "R-1", rd.Response.ConnectorRefundID)
	assert.Equal(t, connector.RefundStatusSuccess, rd.Response.Status)
	assert.Equal(t, "succeeded", rd.Response.RawStatus)
	assert.Equal(t, http.StatusOK, rd.HTTPStatus)
	require.NotNil(t, rd.AccessToken)
	assert.Equal(t, "tok_test", rd.AccessToken.Token)
}

func TestDispatchTokenFetchedOncePerCacheEntry(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusOK,
		refundBody:   `{"refund_id":"R-1","status":"pending","amount":2500,"currency":"EUR"}`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	for i := 0; i < 3; i++ {
		err := d.Dispatch(context.Background(), conn, executeRouterData())
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), stub.tokenCalls.Load())
	assert.Equal(t, int64(3), stub.refundCalls.Load())
}

func TestDispatchErrorResponseIsNotAnError(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusPaymentRequired,
		refundBody:   `{"error":{"code":"51","message":"insufficient_funds"}}`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	err := d.Dispatch(context.Background(), conn, rd)
	require.NoError(t, err) // the processor answered; a decline is a verdict

	require.NotNil(t, rd.Error)
	assert.Nil(t, rd.Response)
	assert.Equal(t, "51", rd.Error.Code)
	assert.Equal(t, http.StatusPaymentRequired, rd.Error.StatusCode)
}

func TestDispatchUnparseable5xxIsInfrastructure(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusBadGateway,
		refundBody:   `<html>upstream unavailable</html>`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	err := d.Dispatch(context.Background(), conn, rd)
	require.Error(t, err) // a melting gateway is not a verdict

	var ce *connector.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connector.KindRequestFailed, ce.Kind)
	assert.Nil(t, rd.Error)
	assert.Nil(t, rd.Response)
}

func TestDispatchUnparseable4xxDegradesToGenericDecline(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusUnprocessableEntity,
		refundBody:   `not json`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	err := d.Dispatch(context.Background(), conn, rd)
	require.NoError(t, err)

	require.NotNil(t, rd.Error)
	assert.Equal(t, "HTTP_422", rd.Error.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, rd.Error.StatusCode)
}

func TestDispatchFlowNotImplemented(t *testing.T) {
	conn := mockpay.New("http://unused", "key", "secret")
	d := connector.NewDispatcher(http.DefaultClient, nil, nil, quietLogger())

	rd := executeRouterData()
	rd.Flow = connector.Flow("Capture")

	err := d.Dispatch(context.Background(), conn, rd)
	require.Error(t, err)

	var ce *connector.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connector.KindNotImplemented, ce.Kind)
	assert.Equal(t, 0, rd.HTTPStatus) // nothing went out
}

func TestDispatchGarbledSuccessBodyIsParseFailure(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusOK,
		refundBody:   `{"refund_id":`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	err := d.Dispatch(context.Background(), conn, rd)
	require.Error(t, err)

	var ce *connector.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connector.KindParseFailed, ce.Kind)
	assert.Nil(t, rd.Response)
}

func TestDispatchTimeout(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusOK,
		refundBody:   `{"refund_id":"R-1","status":"succeeded"}`,
		refundDelay:  300 * time.Millisecond,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	client := &http.Client{Timeout: 50 * time.Millisecond}
	d := connector.NewDispatcher(client, connector.NewMemoryTokenCache(), nil, quietLogger())

	err := d.Dispatch(context.Background(), conn, executeRouterData())
	require.Error(t, err)

	var ce *connector.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connector.KindTimeout, ce.Kind)
}

func TestDispatchRSyncRequiresConnectorRefundID(t *testing.T) {
	conn := mockpay.New("http://unused", "key", "secret")
	// a cached token keeps the pre-flight off the wire
	cache := connector.NewMemoryTokenCache()
	_ = cache.Set(context.Background(), "mockpay", "mca_1", connector.AccessToken{
		Token: "tok_test", ExpiresIn: 3600, CreatedAt: time.Now(),
	})
	d := connector.NewDispatcher(http.DefaultClient, cache, nil, quietLogger())

	rd := executeRouterData()
	rd.Flow = connector.FlowRSync // Request.ConnectorRefundID left empty

	err := d.Dispatch(context.Background(), conn, rd)
	require.Error(t, err)

	var ce *connector.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, connector.KindNotSupported, ce.Kind)
}

func TestDispatchRSyncSuccess(t *testing.T) {
	stub := &processorStub{
		refundStatus: http.StatusOK,
		refundBody:   `{"refund_id":"R-1","status":"review","amount":2500,"currency":"EUR"}`,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	rd.Flow = connector.FlowRSync
	rd.Request.ConnectorRefundID = "R-1"

	err := d.Dispatch(context.Background(), conn, rd)
	require.NoError(t, err)

	require.True(t, rd.Succeeded())
	assert.Equal(t, connector.RefundStatusManualReview, rd.Response.Status)
}

func TestExecuteRequestShape(t *testing.T) {
	var captured struct {
		body    map[string]any
		headers http.Header
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok_test","expires_in":3600}`)
	})
	mux.HandleFunc("POST /v1/refunds", func(w http.ResponseWriter, r *http.Request) {
		captured.headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		fmt.Fprint(w, `{"refund_id":"R-1","status":"pending","amount":2500,"currency":"EUR"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := mockpay.New(srv.URL, "key", "secret")
	d := connector.NewDispatcher(srv.Client(), connector.NewMemoryTokenCache(), nil, quietLogger())

	rd := executeRouterData()
	rd.Request.Reason = "customer request"
	require.NoError(t, d.Dispatch(context.Background(), conn, rd))

	assert.Equal(t, "Bearer tok_test", captured.headers.Get("Authorization"))
	assert.Equal(t, "ref_1", captured.headers.Get("Idempotency-Key"))
	assert.Equal(t, "ref_1", captured.body["reference"])
	assert.Equal(t, "txn_900", captured.body["transaction_id"])
	assert.Equal(t, float64(2500), captured.body["amount"])
	assert.Equal(t, "EUR", captured.body["currency"])
	assert.Equal(t, "customer request", captured.body["reason"])
}
