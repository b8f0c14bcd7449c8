package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// freeAddr reserves an ephemeral localhost port for the callback listener.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// hitCallback issues the redirect request, retrying until the one-shot
// listener is up.
func hitCallback(t *testing.T, addr string, params url.Values) {
	t.Helper()
	client := &http.Client{Timeout: time.Second}
	defer client.CloseIdleConnections()

	target := fmt.Sprintf("http://%s/callback?%s", addr, params.Encode())
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(target)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("callback listener never came up on %s", addr)
}

func TestWaitForCallbackDeliversCode(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := freeAddr(t)
	go hitCallback(t, addr, url.Values{"code": {"auth_abc"}, "state": {"xyz"}})

	code, err := WaitForCallback(context.Background(), addr, "/callback", "xyz")
	if err != nil {
		t.Fatalf("WaitForCallback: %v", err)
	}
	if code != "auth_abc" {
		t.Errorf("code = %q, want auth_abc", code)
	}
}

func TestWaitForCallbackRejectsBadState(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := freeAddr(t)
	go hitCallback(t, addr, url.Values{"code": {"auth_abc"}, "state": {"forged"}})

	_, err := WaitForCallback(context.Background(), addr, "/callback", "xyz")
	if err == nil {
		t.Fatal("forged state must be rejected")
	}
}

func TestWaitForCallbackProviderError(t *testing.T) {
	defer goleak.VerifyNone(t)

	addr := freeAddr(t)
	go hitCallback(t, addr, url.Values{"error": {"access_denied"}, "state": {"xyz"}})

	_, err := WaitForCallback(context.Background(), addr, "/callback", "xyz")
	if err == nil {
		t.Fatal("provider error must surface")
	}
}

func TestWaitForCallbackContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := WaitForCallback(ctx, freeAddr(t), "/callback", "xyz")
	var oerr *Error
	if !errors.As(err, &oerr) {
		t.Fatalf("expected categorized error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected wrapped context.Canceled, got %v", err)
	}
}
