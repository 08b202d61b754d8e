package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPVerifier talks to the gateway's transaction-status API.
type HTTPVerifier struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewHTTPVerifier(baseURL, apiKey string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPVerifier{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, reference string) (*Result, error) {
	endpoint := v.BaseURL + "/v1/transactions/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+v.APIKey)
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway verify %s: %w", reference, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		// Unknown reference is a definitive "no", not an outage.
		return &Result{Succeeded: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway verify %s: %d %s", reference, resp.StatusCode, string(body))
	}
	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gateway verify %s: %w", reference, err)
	}
	return &Result{
		Succeeded: strings.EqualFold(out.Status, "COMPLETED") || strings.EqualFold(out.Status, "SUCCESS"),
		Amount:    out.Amount,
		Currency:  out.Currency,
	}, nil
}
