package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/domain"
)

// QRISAdapter is the Anti-Corruption Layer for the external QRIS payment
// gateway. It decouples the booking domain from the provider's HTTP API.
type QRISAdapter interface {
	// AcquireToken performs the client-credential exchange and returns a
	// short-lived access token. Tokens are not cached; the provider does
	// not advertise a TTL.
	AcquireToken(ctx context.Context) (string, error)

	// IssueQR requests a QR code for the given reference and amount. The
	// reference is derived from the booking ID, so retries for the same
	// booking are safe to resend.
	IssueQR(ctx context.Context, token, reference, description string, amount int64) (qrData string, err error)
}

// Config holds QRIS gateway connection settings.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AppKey       string
	AppSecret    string
	Timeout      time.Duration
}

// HTTPQRISAdapter talks to the real gateway over HTTP with bounded timeouts.
type HTTPQRISAdapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewHTTPQRISAdapter creates a gateway client. A zero timeout defaults to 10s.
func NewHTTPQRISAdapter(cfg Config, logger *zap.Logger) *HTTPQRISAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPQRISAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type tokenResponse struct {
	Status bool `json:"status"`
	Data   struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
	Message string `json:"message"`
}

// AcquireToken exchanges the client credentials for an access token.
func (a *HTTPQRISAdapter) AcquireToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/auth/token", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(a.cfg.ClientID + ":" + a.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("app-key", a.cfg.AppKey)
	req.Header.Set("app-secret", a.cfg.AppSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", domain.NewGatewayError("token request failed: "+err.Error(), "")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body tokenResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.logger.Error("gateway token response is not JSON",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("raw", raw),
		)
		return "", domain.NewGatewayError("token response is not JSON", string(raw))
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		a.logger.Error("gateway refused token request",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", body.Message),
		)
		return "", domain.NewGatewayError("token acquisition refused: "+body.Message, string(raw))
	}
	return body.Data.AccessToken, nil
}

type issueQRRequest struct {
	NoRef        string `json:"no_ref"`
	Description  string `json:"deskripsi"`
	Amount       int64  `json:"amount"`
	ManualCharge int    `json:"manualCharge"`
}

type issueQRResponse struct {
	Status bool `json:"status"`
	Data   struct {
		ReferenceID string `json:"referenceId"`
		QRData      string `json:"qrData"`
		Amount      int64  `json:"amount"`
	} `json:"data"`
	Message string `json:"message"`
}

// IssueQR requests QR issuance for the reference and amount.
func (a *HTTPQRISAdapter) IssueQR(ctx context.Context, token, reference, description string, amount int64) (string, error) {
	payload, err := json.Marshal(issueQRRequest{
		NoRef:       reference,
		Description: description,
		Amount:      amount,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/qris/create-qris", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("publicAccessToken", "Bearer "+token)
	req.Header.Set("app-key", a.cfg.AppKey)
	req.Header.Set("app-secret", a.cfg.AppSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", domain.NewGatewayError("QR issuance request failed: "+err.Error(), "")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body issueQRResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		a.logger.Error("gateway QR response is not JSON",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("raw", raw),
		)
		return "", domain.NewGatewayError("QR response is not JSON", string(raw))
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		a.logger.Error("gateway refused QR issuance",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reference", reference),
			zap.String("message", body.Message),
		)
		return "", domain.NewGatewayError("QR issuance refused: "+body.Message, string(raw))
	}
	return body.Data.QRData, nil
}

// MockQRISAdapter is a development/testing implementation that issues fake
// QR payloads without a gateway account.
type MockQRISAdapter struct {
	logger *zap.Logger
}

// NewMockQRISAdapter creates a new mock adapter for development.
func NewMockQRISAdapter(logger *zap.Logger) *MockQRISAdapter {
	return &MockQRISAdapter{logger: logger}
}

// AcquireToken returns a mock token.
func (m *MockQRISAdapter) AcquireToken(ctx context.Context) (string, error) {
	token := fmt.Sprintf("tok_mock_%s", uuid.New().String()[:8])
	m.logger.Info("[MOCK QRIS] token acquired", zap.String("token", token))
	return token, nil
}

// IssueQR returns a mock QR payload.
func (m *MockQRISAdapter) IssueQR(ctx context.Context, token, reference, description string, amount int64) (string, error) {
	qr := fmt.Sprintf("00020101mock%s%d", reference, amount)
	m.logger.Info("[MOCK QRIS] QR issued",
		zap.String("reference", reference),
		zap.Int64("amount", amount),
	)
	return qr, nil
}
