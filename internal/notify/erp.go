package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
)

type (
	// ERPNotifier posts purchase order status updates to the ERP
	// webhook. Without an endpoint configured it records the update in
	// the log instead
	ERPNotifier struct {
		httpClient *http.Client
		endpoint   string
	}

	erpUpdate struct {
		RequestID api.RequestID `json:"request_id"`
		RunID     api.RunID     `json:"run_id"`
		Tenant    api.Tenant    `json:"tenant,omitempty"`
		Status    string        `json:"status"`
	}

	erpResult struct {
		Error   string `json:"error,omitempty"`
		Success bool   `json:"success"`
	}
)

var (
	ErrERPUnsuccessful = errors.New("erp update returned success=false")
	ErrHTTPError       = errors.New("erp update returned HTTP error")
)

var _ Notifier = (*ERPNotifier)(nil)

func NewERPNotifier(endpoint string, timeout time.Duration) *ERPNotifier {
	return &ERPNotifier{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
	}
}

func (n *ERPNotifier) Send(ctx context.Context, msg *Notification) error {
	if n.endpoint == "" {
		slog.Info("ERP status updated",
			log.RequestID(msg.RequestID),
			log.Status(msg.Status))
		return nil
	}

	update := erpUpdate{
		RequestID: msg.RequestID,
		RunID:     msg.RunID,
		Tenant:    msg.Tenant,
		Status:    msg.Status,
	}

	body, err := json.Marshal(&update)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(body),
	)
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Signoff-Engine/1.0")

	start := time.Now()
	resp, err := n.httpClient.Do(httpReq)
	dur := time.Since(start)

	if err != nil {
		slog.Error("ERP request failed",
			log.RequestID(msg.RequestID),
			slog.Duration("duration", dur),
			log.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("ERP HTTP error",
			log.RequestID(msg.RequestID),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return fmt.Errorf("%w: HTTP %d", ErrHTTPError, resp.StatusCode)
	}

	var result erpResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}

	if !result.Success {
		if result.Error == "" {
			return ErrERPUnsuccessful
		}
		return fmt.Errorf("%w: %s", ErrERPUnsuccessful, result.Error)
	}

	slog.Info("ERP status updated",
		log.RequestID(msg.RequestID),
		log.Status(msg.Status),
		slog.Duration("duration", dur))
	return nil
}
