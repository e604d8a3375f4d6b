package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newKhaltiTestGateway(t *testing.T, rt roundTripFunc) *KhaltiGateway {
	t.Helper()
	gateway, err := NewKhaltiGateway(config.GatewayConfig{
		KhaltiSecretKey: "test-secret",
		KhaltiBaseURL:   "http://khalti.test",
	}, WithKhaltiHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new khalti gateway: %v", err)
	}
	return gateway
}

func TestKhaltiBeginInitiatesPayment(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	var capturedURL, capturedAuth string
	var capturedBody map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"pidx":"pidx-123","payment_url":"http://khalti.test/pay/pidx-123"}`)),
			Header:     http.Header{},
		}, nil
	})

	gateway := newKhaltiTestGateway(t, rt)
	redirect, err := gateway.Begin(context.Background(), GatewayBeginRequest{
		OrderID:         orderID,
		TransactionUUID: "local-uuid",
		Amount:          decimal.RequireFromString("130.50"),
		SuccessURL:      "https://shop.test/payment/success",
	})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if capturedURL != "http://khalti.test"+khaltiInitiatePath {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Key test-secret" {
		t.Fatalf("unexpected authorization %q", capturedAuth)
	}
	// Khalti expects paisa.
	if capturedBody["amount"] != float64(13050) {
		t.Fatalf("unexpected amount %v", capturedBody["amount"])
	}
	if capturedBody["purchase_order_id"] != orderID.String() {
		t.Fatalf("unexpected purchase_order_id %v", capturedBody["purchase_order_id"])
	}
	if redirect.RedirectURL != "http://khalti.test/pay/pidx-123" {
		t.Fatalf("unexpected redirect %q", redirect.RedirectURL)
	}
	if redirect.TransactionRef != "pidx-123" {
		t.Fatalf("unexpected transaction ref %q", redirect.TransactionRef)
	}
}

func TestKhaltiConfirmLooksUpPidx(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != khaltiLookupPath {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if body["pidx"] != "pidx-123" {
			t.Fatalf("unexpected pidx %v", body["pidx"])
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"pidx":"pidx-123","status":"Completed","total_amount":13050}`)),
			Header:     http.Header{},
		}, nil
	})

	gateway := newKhaltiTestGateway(t, rt)
	confirmation, err := gateway.Confirm(context.Background(), json.RawMessage(`{"pidx":"pidx-123"}`))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmation.Completed {
		t.Fatal("expected completed confirmation")
	}
	if confirmation.TransactionUUID != "pidx-123" {
		t.Fatalf("unexpected transaction %q", confirmation.TransactionUUID)
	}
	if !confirmation.Amount.Equal(decimal.RequireFromString("130.5")) {
		t.Fatalf("unexpected amount %s", confirmation.Amount)
	}
}

func TestKhaltiConfirmTreatsNonCompletedAsUnpaid(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"pidx":"pidx-123","status":"Expired","total_amount":13050}`)),
			Header:     http.Header{},
		}, nil
	})

	gateway := newKhaltiTestGateway(t, rt)
	confirmation, err := gateway.Confirm(context.Background(), json.RawMessage(`{"pidx":"pidx-123"}`))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmation.Completed {
		t.Fatal("expired lookup must not count as completed")
	}
}

func TestKhaltiConfirmRequiresPidx(t *testing.T) {
	t.Parallel()

	gateway := newKhaltiTestGateway(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("lookup must not be called without a pidx")
		return nil, nil
	})

	if _, err := gateway.Confirm(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for payload without pidx")
	}
}
