package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
)

func newEsewaTestGateway(t *testing.T) *EsewaGateway {
	t.Helper()
	gateway, err := NewEsewaGateway(config.GatewayConfig{
		EsewaProductCode: "EPAYTEST",
		EsewaSecret:      "8gBm/:&EnhH.1/q",
		EsewaBaseURL:     "https://esewa.test",
	})
	if err != nil {
		t.Fatalf("new esewa gateway: %v", err)
	}
	return gateway
}

func TestEsewaBeginBuildsSignedFormURL(t *testing.T) {
	t.Parallel()

	gateway := newEsewaTestGateway(t)
	redirect, err := gateway.Begin(context.Background(), GatewayBeginRequest{
		OrderID:         uuid.New(),
		TransactionUUID: "txn-abc",
		Amount:          decimal.RequireFromString("130.00"),
		SuccessURL:      "https://shop.test/payment/success",
		FailureURL:      "https://shop.test/payment/failure",
	})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	parsed, err := url.Parse(redirect.RedirectURL)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.HasPrefix(redirect.RedirectURL, "https://esewa.test"+esewaFormPath) {
		t.Fatalf("unexpected redirect %q", redirect.RedirectURL)
	}

	query := parsed.Query()
	if query.Get("total_amount") != "130.00" {
		t.Fatalf("unexpected total_amount %q", query.Get("total_amount"))
	}
	if query.Get("transaction_uuid") != "txn-abc" {
		t.Fatalf("unexpected transaction_uuid %q", query.Get("transaction_uuid"))
	}
	if query.Get("product_code") != "EPAYTEST" {
		t.Fatalf("unexpected product_code %q", query.Get("product_code"))
	}
	if query.Get("signed_field_names") != esewaSignedFieldList {
		t.Fatalf("unexpected signed_field_names %q", query.Get("signed_field_names"))
	}

	expected := gateway.sign("total_amount=130.00,transaction_uuid=txn-abc,product_code=EPAYTEST")
	if query.Get("signature") != expected {
		t.Fatalf("signature mismatch: got %q want %q", query.Get("signature"), expected)
	}
}

func TestEsewaConfirmAcceptsSignedPayload(t *testing.T) {
	t.Parallel()

	gateway := newEsewaTestGateway(t)
	signature := gateway.sign("transaction_uuid=txn-abc,status=COMPLETE,total_amount=130.00")
	body := map[string]any{
		"transaction_uuid":   "txn-abc",
		"status":             "COMPLETE",
		"total_amount":       "130.00",
		"product_code":       "EPAYTEST",
		"signed_field_names": "transaction_uuid,status,total_amount",
		"signature":          signature,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	payload, err := json.Marshal(map[string]string{
		"data": base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	confirmation, err := gateway.Confirm(context.Background(), payload)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmation.Completed {
		t.Fatal("expected completed confirmation")
	}
	if confirmation.TransactionUUID != "txn-abc" {
		t.Fatalf("unexpected transaction %q", confirmation.TransactionUUID)
	}
	if !confirmation.Amount.Equal(decimal.RequireFromString("130")) {
		t.Fatalf("unexpected amount %s", confirmation.Amount)
	}
}

func TestEsewaConfirmRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	gateway := newEsewaTestGateway(t)
	body := map[string]any{
		"transaction_uuid":   "txn-abc",
		"status":             "COMPLETE",
		"total_amount":       "999.00",
		"signed_field_names": "transaction_uuid,status,total_amount",
		"signature":          "bm90LWEtcmVhbC1zaWduYXR1cmU=",
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	confirmation, err := gateway.Confirm(context.Background(), raw)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmation.Completed {
		t.Fatal("expected tampered payload to be rejected")
	}
}

func TestEsewaConfirmParsesThousandsSeparators(t *testing.T) {
	t.Parallel()

	gateway := newEsewaTestGateway(t)
	raw, err := json.Marshal(map[string]any{
		"transaction_uuid": "txn-big",
		"status":           "PENDING",
		"total_amount":     "1,130.00",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	confirmation, err := gateway.Confirm(context.Background(), raw)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmation.Completed {
		t.Fatal("pending transaction must not count as completed")
	}
	if !confirmation.Amount.Equal(decimal.RequireFromString("1130")) {
		t.Fatalf("unexpected amount %s", confirmation.Amount)
	}
}
