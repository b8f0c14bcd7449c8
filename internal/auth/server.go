package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CallbackTimeout bounds how long the local listener waits for the user to
// finish authorizing in the browser.
const CallbackTimeout = 5 * time.Minute

// WaitForCallback runs a one-shot local HTTP server on addr to receive the
// authorization redirect and returns the code. The listener exists only
// for the duration of this call; it never runs concurrently with any
// other stateful operation.
func WaitForCallback(ctx context.Context, addr, path, expectedState string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallbackTimeout)
	defer cancel()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != expectedState {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			errChan <- fmt.Errorf("invalid state received")
			return
		}
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "Authorization failed: "+errStr, http.StatusBadRequest)
			errChan <- fmt.Errorf("authorization failed: %s", errStr)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			errChan <- fmt.Errorf("no authorization code received")
			return
		}
		w.Write([]byte("Authorization successful! You can close this window and return to the terminal."))
		codeChan <- code
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Close()

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-ctx.Done():
		return "", &Error{
			Kind:       KindUnknown,
			Message:    "Authorization flow timed out",
			Suggestion: "Please try again and complete authorization within 5 minutes",
			Err:        ctx.Err(),
		}
	}
}
