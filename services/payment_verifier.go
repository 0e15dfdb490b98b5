package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Verification statuses returned by the payment provider
const (
	VerificationSuccessful = "successful"
	VerificationPending    = "pending"
)

// VerificationResult is the provider's answer for one transaction
type VerificationResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PaymentVerifier checks a transaction reference with the payment provider
type PaymentVerifier interface {
	Verify(ctx context.Context, transactionRef string) (VerificationResult, error)
}

// HTTPPaymentVerifier calls the remote verification function over HTTP
type HTTPPaymentVerifier struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewHTTPPaymentVerifier creates a verifier posting to url with a bearer token
func NewHTTPPaymentVerifier(url, token string) *HTTPPaymentVerifier {
	return &HTTPPaymentVerifier{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Verify posts {"transaction_id": ref} and decodes {"status": ...}
func (v *HTTPPaymentVerifier) Verify(ctx context.Context, transactionRef string) (VerificationResult, error) {
	if v.url == "" {
		return VerificationResult{}, fmt.Errorf("payment verification is not configured")
	}

	payload, err := json.Marshal(map[string]string{"transaction_id": transactionRef})
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to call verification function: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return VerificationResult{}, fmt.Errorf("failed to read verification response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return VerificationResult{}, fmt.Errorf("verification function returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return VerificationResult{}, fmt.Errorf("failed to decode verification response: %w", err)
	}
	result.Status = strings.ToLower(strings.TrimSpace(result.Status))

	return result, nil
}
