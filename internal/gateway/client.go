package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bookpay/internal/domain"
)

// responseCodeSuccess is the processor's code for an authorized transaction.
const responseCodeSuccess = "INS-0"

// Client is the live HTTP implementation of Gateway. It obtains a fresh
// encrypted token per attempt and submits the transaction to the processor
// endpoint.
type Client struct {
	httpClient          *http.Client
	endpoint            string
	serviceProviderCode string
	apiSecret           []byte
	publicKeyPEM        []byte
}

// ClientConfig holds the configuration for the live gateway client.
type ClientConfig struct {
	Endpoint            string
	ServiceProviderCode string
	APISecret           []byte
	PublicKeyPEM        []byte
	Timeout             time.Duration
}

// NewClient creates a new live gateway client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:          &http.Client{Timeout: timeout},
		endpoint:            cfg.Endpoint,
		serviceProviderCode: cfg.ServiceProviderCode,
		apiSecret:           cfg.APISecret,
		publicKeyPEM:        cfg.PublicKeyPEM,
	}
}

// transactionRequest is the processor's wire format for a charge.
type transactionRequest struct {
	CustomerMSISDN       string `json:"input_CustomerMSISDN"`
	Amount               string `json:"input_Amount"`
	TransactionReference string `json:"input_TransactionReference"`
	ServiceProviderCode  string `json:"input_ServiceProviderCode"`
}

// transactionResponse is the processor's wire format for the result.
type transactionResponse struct {
	ResponseCode string `json:"output_ResponseCode"`
	ResponseDesc string `json:"output_ResponseDesc"`
}

// Initiate encrypts the credential, submits the transaction and interprets
// the processor's answer. Crypto, transport and business failures remain
// distinguishable in the returned outcome.
func (c *Client) Initiate(ctx context.Context, req Request) domain.Outcome {
	// A fresh token per attempt: OAEP ciphertexts are randomized and must
	// never be reused across transactions.
	token, err := EncryptCredential(c.apiSecret, c.publicKeyPEM)
	if err != nil {
		return domain.Outcome{Status: domain.OutcomeCryptoFailed, Reason: err.Error()}
	}

	payload := transactionRequest{
		CustomerMSISDN:       req.MSISDN,
		Amount:               req.Amount.StringFixed(2),
		TransactionReference: req.Reference,
		ServiceProviderCode:  c.serviceProviderCode,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "encode request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "gateway timeout"}
		}
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "gateway unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	var result transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "decode response: " + err.Error()}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "gateway error: " + result.ResponseDesc}
	}

	if result.ResponseCode == responseCodeSuccess {
		return domain.Outcome{Status: domain.OutcomeApproved}
	}

	reason := result.ResponseDesc
	if reason == "" {
		reason = "declined by processor (" + result.ResponseCode + ")"
	}

	return domain.Outcome{Status: domain.OutcomeDeclined, Reason: reason}
}
