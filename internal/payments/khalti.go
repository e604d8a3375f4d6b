package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

const (
	khaltiInitiatePath             = "/api/v2/epayment/initiate/"
	khaltiLookupPath               = "/api/v2/epayment/lookup/"
	khaltiStatusCompleted          = "Completed"
	khaltiBodyReadLimit      int64 = 1024
	khaltiOrderName                = "Kin-Bech order"
	defaultKhaltiHTTPTimeout       = 10 * time.Second
)

var errKhaltiSecretRequired = errors.New("khalti secret key is required")

// KhaltiGateway implements the Khalti ePayment v2 flow. Unlike eSewa, the
// payment state lives server-side: Begin initiates a payment and receives a
// pidx plus hosted payment URL, and Confirm resolves the pidx through the
// lookup endpoint instead of trusting the redirect payload.
type KhaltiGateway struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// KhaltiOption configures optional gateway behavior.
type KhaltiOption func(*KhaltiGateway)

// WithKhaltiHTTPClient overrides the default HTTP client.
func WithKhaltiHTTPClient(client *http.Client) KhaltiOption {
	return func(g *KhaltiGateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// NewKhaltiGateway builds the Khalti gateway from configuration.
func NewKhaltiGateway(cfg config.GatewayConfig, opts ...KhaltiOption) (*KhaltiGateway, error) {
	secret := strings.TrimSpace(cfg.KhaltiSecretKey)
	if secret == "" {
		return nil, errKhaltiSecretRequired
	}

	gateway := &KhaltiGateway{
		httpClient: &http.Client{Timeout: defaultKhaltiHTTPTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.KhaltiBaseURL), "/"),
		secretKey:  secret,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(gateway)
		}
	}

	return gateway, nil
}

// Begin initiates a payment with Khalti. The returned pidx replaces the local
// transaction uuid so Confirm can look the payment up later. Khalti amounts
// are expressed in paisa.
func (g *KhaltiGateway) Begin(ctx context.Context, req GatewayBeginRequest) (*GatewayRedirect, error) {
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "khalti gateway not configured")
	}

	body := map[string]any{
		"return_url":          req.SuccessURL,
		"website_url":         req.SuccessURL,
		"amount":              req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"purchase_order_id":   req.OrderID.String(),
		"purchase_order_name": khaltiOrderName,
	}

	var apiResp struct {
		Pidx       string `json:"pidx"`
		PaymentURL string `json:"payment_url"`
	}
	if err := g.post(ctx, khaltiInitiatePath, body, &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Pidx == "" || apiResp.PaymentURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "khalti initiate returned incomplete response")
	}

	return &GatewayRedirect{
		RedirectURL:    apiResp.PaymentURL,
		TransactionRef: apiResp.Pidx,
	}, nil
}

// Confirm resolves the pidx carried in the callback payload against Khalti's
// lookup endpoint. Only a Completed lookup status counts as paid.
func (g *KhaltiGateway) Confirm(ctx context.Context, payload json.RawMessage) (*GatewayConfirmation, error) {
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "khalti gateway not configured")
	}

	var callback struct {
		Pidx string `json:"pidx"`
	}
	if err := json.Unmarshal(payload, &callback); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode khalti payload")
	}
	if strings.TrimSpace(callback.Pidx) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "khalti payload missing pidx")
	}

	var apiResp struct {
		Pidx        string          `json:"pidx"`
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	if err := g.post(ctx, khaltiLookupPath, map[string]any{"pidx": callback.Pidx}, &apiResp); err != nil {
		return nil, err
	}

	return &GatewayConfirmation{
		TransactionUUID: apiResp.Pidx,
		Amount:          apiResp.TotalAmount.Div(decimal.NewFromInt(100)),
		Completed:       apiResp.Status == khaltiStatusCompleted,
	}, nil
}

func (g *KhaltiGateway) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal khalti request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build khalti request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+g.secretKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute khalti request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, khaltiBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "khalti request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode khalti response")
	}

	return nil
}
