package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harwick/chime/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key: base64url, 65-byte uncompressed P-256 point.
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key: base64url, 32-byte P-256 scalar.
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

// testSubscription builds a subscription with real client-side crypto
// material so the webpush library can encrypt against it.
func testSubscription(t *testing.T, endpoint string) *model.Subscription {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	p256dh := base64.RawURLEncoding.EncodeToString(
		elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y))

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}

	return &model.Subscription{
		ID:        1,
		Endpoint:  endpoint,
		P256dhKey: p256dh,
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
		Active:    true,
	}
}

func testService(t *testing.T) *Service {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	return NewService(pub, priv, "mailto:ops@chime.test", 86400)
}

func TestSendSetsWebPushHeaders(t *testing.T) {
	var gotTTL, gotUrgency, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("TTL")
		gotUrgency = r.Header.Get("Urgency")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	svc := testService(t)
	sub := testSubscription(t, srv.URL)

	err := svc.Send(context.Background(), sub, Payload{Title: "hi", Body: "there"}, UrgencyHigh)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotTTL != "86400" {
		t.Errorf("TTL header = %q, want 86400", gotTTL)
	}
	if gotUrgency != "high" {
		t.Errorf("Urgency header = %q, want high", gotUrgency)
	}
	if gotAuth == "" {
		t.Error("expected VAPID Authorization header")
	}
}

func TestSendGoneEndpoint(t *testing.T) {
	for _, status := range []int{http.StatusGone, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		svc := testService(t)
		sub := testSubscription(t, srv.URL)

		err := svc.Send(context.Background(), sub, Payload{Title: "x"}, UrgencyLow)
		if !errors.Is(err, ErrExpired) {
			t.Errorf("status %d: err = %v, want ErrExpired", status, err)
		}
		srv.Close()
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := testService(t)
	sub := testSubscription(t, srv.URL)

	err := svc.Send(context.Background(), sub, Payload{Title: "x"}, UrgencyNormal)
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if errors.Is(err, ErrExpired) {
		t.Error("500 must not be treated as an expired endpoint")
	}
}
