package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"finrota.com/app/internal/storage"
)

// Dispatcher performs exactly one outbound call per Dispatch invocation
// (plus at most one token call). Retries are the scheduler's job, never this
// layer's.
type Dispatcher struct {
	client  *http.Client
	tokens  TokenCache
	archive storage.Storage // optional raw payload archive, best-effort
	logger  *slog.Logger
}

func NewDispatcher(client *http.Client, tokens TokenCache, archive storage.Storage, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, tokens: tokens, archive: archive, logger: logger}
}

// Dispatch resolves the flow integration, runs the token pre-flight when the
// adapter declares the capability, sends the request, and fills rd.Response or
// rd.Error. A returned error is always a *Error: the processor was never
// consulted (or its answer was unreadable).
func (d *Dispatcher) Dispatch(ctx context.Context, conn Connector, rd *RouterData) error {
	name := conn.Name()

	integ, ok := conn.Integration(rd.Flow)
	if !ok {
		return newError(KindNotImplemented, name, rd.Flow, nil)
	}

	// Token pre-flight: failure here aborts before any money-moving call.
	if atp, needs := conn.(AccessTokenProvider); needs && rd.AccessToken == nil {
		if err := d.ensureAccessToken(ctx, atp, name, rd); err != nil {
			return err
		}
	}

	req, err := integ.BuildRequest(ctx, rd)
	if err != nil {
		return newError(KindNotSupported, name, rd.Flow, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		var ne net.Error
		if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return newError(KindTimeout, name, rd.Flow, err)
		}
		return newError(KindRequestFailed, name, rd.Flow, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(KindRequestFailed, name, rd.Flow, err)
	}
	rd.HTTPStatus = resp.StatusCode

	d.archiveRaw(ctx, rd, req, body, resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		parsed, perr := integ.HandleResponse(rd, resp.StatusCode, body)
		if perr != nil {
			return newError(KindParseFailed, name, rd.Flow, perr)
		}
		rd.Response = &parsed
		return nil
	}

	er, perr := integ.GetErrorResponse(resp.StatusCode, body)
	if perr != nil {
		// An unreadable 5xx is the gateway melting down, not a verdict on the
		// refund. Treat it as infrastructure so the attempt stays retryable.
		if resp.StatusCode >= 500 {
			return newError(KindRequestFailed, name, rd.Flow, perr)
		}
		er = ErrorResponse{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: "unparseable error response",
		}
	}
	er.StatusCode = resp.StatusCode
	rd.Error = &er
	return nil
}

func (d *Dispatcher) ensureAccessToken(ctx context.Context, atp AccessTokenProvider, name string, rd *RouterData) error {
	if d.tokens != nil {
		cached, err := d.tokens.Get(ctx, name, rd.MerchantConnectorID)
		if err == nil && cached != nil {
			rd.AccessToken = cached
			return nil
		}
	}

	tok, err := atp.FetchAccessToken(ctx, rd)
	if err != nil {
		return newError(KindAccessToken, name, rd.Flow, err)
	}
	rd.AccessToken = &tok

	if d.tokens != nil {
		if err := d.tokens.Set(ctx, name, rd.MerchantConnectorID, tok); err != nil {
			d.logger.WarnContext(ctx, "token cache write failed", "connector", name, "err", err)
		}
	}
	return nil
}

// archiveRaw keeps the processor's raw answer for audit. Best-effort: an
// archive failure is logged and swallowed.
func (d *Dispatcher) archiveRaw(ctx context.Context, rd *RouterData, req *http.Request, body []byte, status int) {
	if d.archive == nil {
		return
	}
	record := fmt.Sprintf("%s %s\nstatus=%d\n\n%s", req.Method, req.URL.String(), status, body)
	_, err := d.archive.Put(ctx, bytes.NewReader([]byte(record)), storage.PutInput{
		Key:         fmt.Sprintf("%s/%s/%s", rd.Connector, rd.RefundID, rd.Flow),
		ContentType: "text/plain",
	})
	if err != nil {
		d.logger.WarnContext(ctx, "dispatch archive failed",
			"connector", rd.Connector, "refund_id", rd.RefundID, "err", err)
	}
}
