package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/middleware"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payments"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

type stubPaymentsService struct {
	checkoutResult *payments.CheckoutResult
	order          *models.Order
	err            error

	gotCheckout payments.CheckoutInput
	gotVerify   payments.VerifyInput
	gotStatus   payments.StatusInput
}

func (s *stubPaymentsService) Checkout(ctx context.Context, input payments.CheckoutInput) (*payments.CheckoutResult, error) {
	s.gotCheckout = input
	return s.checkoutResult, s.err
}

func (s *stubPaymentsService) VerifyPayment(ctx context.Context, input payments.VerifyInput) (*models.Order, error) {
	s.gotVerify = input
	return s.order, s.err
}

func (s *stubPaymentsService) UpdatePaymentStatus(ctx context.Context, input payments.StatusInput) (*models.Order, error) {
	s.gotStatus = input
	return s.order, s.err
}

func paymentsRouter(svc payments.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/checkout", CheckoutOrder(svc, nil))
	r.Post("/api/v1/orders/{orderId}/payment/verify", VerifyPayment(svc, nil))
	r.Patch("/api/v1/orders/{orderId}/payment", UpdatePaymentStatus(svc, nil))
	return r
}

func withActor(req *http.Request, actorID uuid.UUID, role enums.Role) *http.Request {
	ctx := middleware.WithUserID(req.Context(), actorID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return req.WithContext(ctx)
}

func TestCheckoutOrderForwardsInput(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentsService{checkoutResult: &payments.CheckoutResult{
		Order:       &models.Order{ID: orderID},
		RedirectURL: "https://khalti.test/pay/pidx-1",
	}}
	router := paymentsRouter(svc)

	body := `{
		"payment_method": "KHALTI",
		"shipping": {"name": "Asha", "address": "Baneshwor", "city": "Kathmandu", "phone": "9800000001"},
		"success_url": "https://shop.test/done"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/checkout", strings.NewReader(body))
	req = withActor(req, buyerID, enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCheckout.OrderID != orderID || svc.gotCheckout.BuyerID != buyerID {
		t.Fatalf("ids not forwarded: %+v", svc.gotCheckout)
	}
	if svc.gotCheckout.Method != enums.PaymentMethodKhalti {
		t.Fatalf("unexpected method: %s", svc.gotCheckout.Method)
	}
	if svc.gotCheckout.Shipping.City != "Kathmandu" {
		t.Fatalf("shipping not forwarded: %+v", svc.gotCheckout.Shipping)
	}
	if svc.gotCheckout.SuccessURL != "https://shop.test/done" {
		t.Fatalf("success url not forwarded: %q", svc.gotCheckout.SuccessURL)
	}
}

func TestCheckoutOrderRejectsSeller(t *testing.T) {
	router := paymentsRouter(&stubPaymentsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/checkout", strings.NewReader(`{}`))
	req = withActor(req, uuid.New(), enums.RoleSeller)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCheckoutOrderRejectsUnknownMethod(t *testing.T) {
	router := paymentsRouter(&stubPaymentsService{})

	body := `{"payment_method": "paypal", "shipping": {"name": "A", "address": "B", "city": "C", "phone": "D"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/checkout", strings.NewReader(body))
	req = withActor(req, uuid.New(), enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutOrderRejectsBadOrderID(t *testing.T) {
	router := paymentsRouter(&stubPaymentsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/checkout", strings.NewReader(`{}`))
	req = withActor(req, uuid.New(), enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPaymentForwardsRawPayload(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentsService{order: &models.Order{ID: orderID}}
	router := paymentsRouter(svc)

	payload := `{"pidx": "pidx-12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment/verify", strings.NewReader(payload))
	req = withActor(req, buyerID, enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if string(svc.gotVerify.Payload) != payload {
		t.Fatalf("payload altered: %s", svc.gotVerify.Payload)
	}
	if svc.gotVerify.ActorID != buyerID || svc.gotVerify.Role != enums.RoleBuyer {
		t.Fatalf("actor not forwarded: %+v", svc.gotVerify)
	}
}

func TestVerifyPaymentRejectsInvalidJSON(t *testing.T) {
	router := paymentsRouter(&stubPaymentsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/payment/verify", strings.NewReader("not json"))
	req = withActor(req, uuid.New(), enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPaymentMapsVerificationFailure(t *testing.T) {
	svc := &stubPaymentsService{err: pkgerrors.New(pkgerrors.CodeVerification, "payment verification failed")}
	router := paymentsRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/payment/verify", strings.NewReader(`{"pidx":"x"}`))
	req = withActor(req, uuid.New(), enums.RoleBuyer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "payment verification failed") {
		t.Fatalf("expected verification message, got %s", resp.Body.String())
	}
}

func TestUpdatePaymentStatusForwardsSubOrder(t *testing.T) {
	sellerID := uuid.New()
	orderID := uuid.New()
	subOrderID := uuid.New()
	svc := &stubPaymentsService{order: &models.Order{ID: orderID}}
	router := paymentsRouter(svc)

	body := `{"status": "PAID", "sub_order_id": "` + subOrderID.String() + `"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/payment", strings.NewReader(body))
	req = withActor(req, sellerID, enums.RoleSeller)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotStatus.Target != enums.PaymentStatusPaid {
		t.Fatalf("unexpected target: %s", svc.gotStatus.Target)
	}
	if svc.gotStatus.SubOrderID == nil || *svc.gotStatus.SubOrderID != subOrderID {
		t.Fatalf("sub order id not forwarded: %v", svc.gotStatus.SubOrderID)
	}
}

func TestUpdatePaymentStatusRejectsUnknownStatus(t *testing.T) {
	router := paymentsRouter(&stubPaymentsService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/payment", strings.NewReader(`{"status": "maybe"}`))
	req = withActor(req, uuid.New(), enums.RoleAdmin)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
