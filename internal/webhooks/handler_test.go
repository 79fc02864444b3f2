package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Gateway-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.InboundMessage(rec, req)
	return rec
}

func TestInboundMessage_MissingSecret(t *testing.T) {
	os.Unsetenv("WEBHOOK_SECRET")
	h := &Handler{}
	if rec := postWebhook(t, h, "{}", "sha256=abc"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 without WEBHOOK_SECRET, got %d", rec.Code)
	}
}

func TestInboundMessage_BadSignature(t *testing.T) {
	os.Setenv("WEBHOOK_SECRET", "topsecret")
	defer os.Unsetenv("WEBHOOK_SECRET")

	h := &Handler{}
	body := `{"from":"+23276100200","text":"upvote 1"}`
	if rec := postWebhook(t, h, body, sign(body, "wrong-secret")); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad signature, got %d", rec.Code)
	}
	if rec := postWebhook(t, h, body, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a signature, got %d", rec.Code)
	}
}

func TestInboundMessage_UnknownCommandGetsHelpReply(t *testing.T) {
	os.Setenv("WEBHOOK_SECRET", "topsecret")
	defer os.Unsetenv("WEBHOOK_SECRET")

	h := &Handler{}
	body := `{"from":"+23276100200","text":"good morning"}`
	rec := postWebhook(t, h, body, sign(body, "topsecret"))

	if rec.Code != http.StatusOK {
		t.Fatalf("user-facing errors still answer 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "didn't understand") {
		t.Errorf("expected a help reply, got %s", rec.Body.String())
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"from":"+23276100200"}`)
	good := sign(string(body), "s3cret")

	if !verifySignature(good, body, "s3cret") {
		t.Error("valid signature rejected")
	}
	if verifySignature(good, body, "other") {
		t.Error("signature for a different secret accepted")
	}
	if verifySignature("md5=abc", body, "s3cret") {
		t.Error("non-sha256 prefix accepted")
	}
}
