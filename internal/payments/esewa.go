package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

const (
	esewaFormPath        = "/api/epay/main/v2/form"
	esewaSignedFieldList = "total_amount,transaction_uuid,product_code"
	esewaStatusComplete  = "COMPLETE"
)

var errEsewaSecretRequired = errors.New("esewa secret key is required")

// EsewaGateway implements the eSewa ePay v2 flow. Begin builds the signed
// hosted-form URL; Confirm decodes the base64-encoded JSON payload eSewa
// appends to the success redirect.
type EsewaGateway struct {
	productCode string
	secret      string
	baseURL     string
}

// NewEsewaGateway builds the eSewa gateway from configuration.
func NewEsewaGateway(cfg config.GatewayConfig) (*EsewaGateway, error) {
	secret := strings.TrimSpace(cfg.EsewaSecret)
	if secret == "" {
		return nil, errEsewaSecretRequired
	}

	return &EsewaGateway{
		productCode: strings.TrimSpace(cfg.EsewaProductCode),
		secret:      secret,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.EsewaBaseURL), "/"),
	}, nil
}

// Begin returns the hosted checkout URL the buyer is redirected to. eSewa
// requires an HMAC-SHA256 signature over a fixed, ordered field list.
func (g *EsewaGateway) Begin(_ context.Context, req GatewayBeginRequest) (*GatewayRedirect, error) {
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "esewa gateway not configured")
	}

	amount := req.Amount.StringFixed(2)
	signature := g.sign(fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s", amount, req.TransactionUUID, g.productCode))

	params := url.Values{}
	params.Set("amount", amount)
	params.Set("tax_amount", "0")
	params.Set("product_service_charge", "0")
	params.Set("product_delivery_charge", "0")
	params.Set("total_amount", amount)
	params.Set("transaction_uuid", req.TransactionUUID)
	params.Set("product_code", g.productCode)
	params.Set("success_url", req.SuccessURL)
	params.Set("failure_url", req.FailureURL)
	params.Set("signed_field_names", esewaSignedFieldList)
	params.Set("signature", signature)

	return &GatewayRedirect{
		RedirectURL: fmt.Sprintf("%s%s?%s", g.baseURL, esewaFormPath, params.Encode()),
	}, nil
}

// Confirm decodes the redirect payload and checks its signature. The payload
// arrives as base64-encoded JSON; a tampered or incomplete transaction yields
// Completed=false rather than an error so the caller can report a mismatch.
func (g *EsewaGateway) Confirm(_ context.Context, payload json.RawMessage) (*GatewayConfirmation, error) {
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "esewa gateway not configured")
	}

	var envelope struct {
		Data string `json:"data"`
	}
	raw := []byte(payload)
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(envelope.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode esewa payload")
		}
		raw = decoded
	}

	var body struct {
		TransactionUUID  string `json:"transaction_uuid"`
		TotalAmount      string `json:"total_amount"`
		Status           string `json:"status"`
		ProductCode      string `json:"product_code"`
		SignedFieldNames string `json:"signed_field_names"`
		Signature        string `json:"signature"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode esewa payload")
	}
	if body.TransactionUUID == "" || body.TotalAmount == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "esewa payload missing transaction details")
	}

	// eSewa formats amounts with thousands separators in some payloads.
	amount, err := decimal.NewFromString(strings.ReplaceAll(body.TotalAmount, ",", ""))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse esewa amount")
	}

	completed := strings.EqualFold(body.Status, esewaStatusComplete)
	if completed && body.Signature != "" {
		completed = g.verifySignature(raw, body.SignedFieldNames, body.Signature)
	}

	return &GatewayConfirmation{
		TransactionUUID: body.TransactionUUID,
		Amount:          amount,
		Completed:       completed,
	}, nil
}

func (g *EsewaGateway) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the HMAC over the payload's signed fields in the
// order the payload names them.
func (g *EsewaGateway) verifySignature(raw []byte, signedFields, signature string) bool {
	if signedFields == "" {
		return false
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}

	parts := make([]string, 0, 8)
	for _, name := range strings.Split(signedFields, ",") {
		name = strings.TrimSpace(name)
		value, ok := fields[name]
		if !ok {
			return false
		}
		parts = append(parts, fmt.Sprintf("%s=%v", name, value))
	}

	expected := g.sign(strings.Join(parts, ","))
	return hmac.Equal([]byte(expected), []byte(signature))
}
