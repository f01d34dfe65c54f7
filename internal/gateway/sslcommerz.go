package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
)

const sslcommerzQueryPath = "/validator/api/merchantTransIDvalidationAPI.php"

// SSLCommerzConfig holds the merchant credentials for the transaction query API.
type SSLCommerzConfig struct {
	BaseURL       string
	StoreID       string
	StorePassword string
}

// SSLCommerzAdapter queries the SSLCommerz transaction query API, which serves
// the mobile wallet, bank and ATM methods.
type SSLCommerzAdapter struct {
	cfg    SSLCommerzConfig
	client *http.Client
}

// NewSSLCommerzAdapter creates an adapter. Outgoing requests are recorded as
// New Relic external segments when the context carries a transaction.
func NewSSLCommerzAdapter(cfg SSLCommerzConfig) *SSLCommerzAdapter {
	return &SSLCommerzAdapter{
		cfg:    cfg,
		client: &http.Client{Transport: newrelic.NewRoundTripper(nil)},
	}
}

// Name returns "sslcommerz".
func (a *SSLCommerzAdapter) Name() string {
	return "sslcommerz"
}

type sslcommerzResponse struct {
	APIConnect string `json:"APIConnect"`
	Element    []struct {
		TranID string `json:"tran_id"`
		Status string `json:"status"`
	} `json:"element"`
}

// QueryStatus returns the status of the most recent attempt for tranID.
func (a *SSLCommerzAdapter) QueryStatus(ctx context.Context, tranID string) (Status, error) {
	query := url.Values{}
	query.Set("tran_id", tranID)
	query.Set("store_id", a.cfg.StoreID)
	query.Set("store_passwd", a.cfg.StorePassword)
	query.Set("format", "json")

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + sslcommerzQueryPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected http status %d", resp.StatusCode)
	}

	var body sslcommerzResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if body.APIConnect != "DONE" {
		return "", fmt.Errorf("api connect %q", body.APIConnect)
	}
	if len(body.Element) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownTransaction, tranID)
	}

	// The API lists attempts newest first.
	return Status(body.Element[0].Status), nil
}
