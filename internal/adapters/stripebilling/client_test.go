package stripebilling_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"reviewpilot/internal/adapters/stripebilling"
	"reviewpilot/internal/domain"
)

const testWebhookSecret = "whsec_test"

func newClient(t *testing.T) *stripebilling.Client {
	cl, err := stripebilling.New(stripebilling.Config{
		SecretKey:     "sk_test_x",
		WebhookSecret: testWebhookSecret,
		FrontendURL:   "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

// sign produces a valid Stripe-Signature header over payload.
func sign(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
}

func eventJSON(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","type":%q,"data":{"object":%s}}`, eventType, object))
}

func TestVerifyEvent_BadSignature(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("checkout.session.completed", `{}`)
	if _, err := cl.VerifyEvent(payload, "t=1,v1=deadbeef"); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyEvent_CheckoutCompleted(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("checkout.session.completed",
		`{"id":"cs_1","metadata":{"userId":"u1","plan":"pro"}}`)

	ev, err := cl.VerifyEvent(payload, sign(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cc, ok := ev.(domain.CheckoutCompleted)
	if !ok {
		t.Fatalf("expected CheckoutCompleted, got %T", ev)
	}
	if cc.UserID != "u1" || cc.Plan != "pro" {
		t.Fatalf("unexpected event: %+v", cc)
	}
}

func TestVerifyEvent_SubscriptionUpdated(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("customer.subscription.updated",
		`{"id":"sub_1","customer":"cus_1","status":"past_due","current_period_end":1767225600}`)

	ev, err := cl.VerifyEvent(payload, sign(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	su, ok := ev.(domain.SubscriptionUpdated)
	if !ok {
		t.Fatalf("expected SubscriptionUpdated, got %T", ev)
	}
	if su.CustomerID != "cus_1" || su.Status != "past_due" {
		t.Fatalf("unexpected event: %+v", su)
	}
	if su.PeriodEnd == nil || su.PeriodEnd.Unix() != 1767225600 {
		t.Fatalf("unexpected period end: %+v", su.PeriodEnd)
	}
}

func TestVerifyEvent_SubscriptionDeleted(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("customer.subscription.deleted", `{"id":"sub_1","customer":"cus_1"}`)

	ev, err := cl.VerifyEvent(payload, sign(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sd, ok := ev.(domain.SubscriptionDeleted); !ok || sd.CustomerID != "cus_1" {
		t.Fatalf("unexpected event: %#v", ev)
	}
}

func TestVerifyEvent_PaymentFailed(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("invoice.payment_failed", `{"id":"in_1","customer":"cus_1"}`)

	ev, err := cl.VerifyEvent(payload, sign(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pf, ok := ev.(domain.PaymentFailed); !ok || pf.CustomerID != "cus_1" {
		t.Fatalf("unexpected event: %#v", ev)
	}
}

func TestVerifyEvent_UnhandledType(t *testing.T) {
	cl := newClient(t)
	payload := eventJSON("customer.created", `{"id":"cus_1"}`)

	ev, err := cl.VerifyEvent(payload, sign(payload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ue, ok := ev.(domain.UnhandledEvent); !ok || ue.Type != "customer.created" {
		t.Fatalf("expected UnhandledEvent, got %#v", ev)
	}
}

func TestNew_RequiresSecretKey(t *testing.T) {
	if _, err := stripebilling.New(stripebilling.Config{}); err == nil {
		t.Fatalf("expected error for empty secret key")
	}
}
