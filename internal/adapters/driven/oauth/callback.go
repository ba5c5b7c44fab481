package oauth

import (
	"fmt"
	"net"
	"net/http"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

// callbackResult carries the outcome of one loopback redirect.
type callbackResult struct {
	code string
	err  error
}

// callbackServer is the short-lived loopback HTTP server that receives the
// authorization code redirect from the browser flow.
type callbackServer struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
}

// startCallbackServer listens on the loopback interface and serves exactly
// one redirect. The expected state parameter is checked before the code is
// accepted.
func startCallbackServer(port int, expectedState string) (*callbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}

	cs := &callbackServer{
		listener: listener,
		results:  make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			cs.deliver(callbackResult{err: redirectError(errCode, query.Get("error_description"))})
			writePage(w, "Sign-in was not completed. You can close this window.")
			return
		}
		if query.Get("state") != expectedState {
			cs.deliver(callbackResult{err: fmt.Errorf("oauth: state mismatch in redirect")})
			writePage(w, "Sign-in failed. You can close this window.")
			return
		}

		code := query.Get("code")
		if code == "" {
			cs.deliver(callbackResult{err: fmt.Errorf("oauth: redirect missing authorization code")})
			writePage(w, "Sign-in failed. You can close this window.")
			return
		}

		cs.deliver(callbackResult{code: code})
		writePage(w, "Signed in. You can close this window and return to the terminal.")
	})

	cs.server = &http.Server{Handler: mux}
	go func() {
		// Serve returns once the listener is closed; errors here are expected
		// during shutdown and already reported via the results channel.
		_ = cs.server.Serve(listener)
	}()

	return cs, nil
}

// redirectURI is the URI the identity provider redirects back to. It must be
// registered on the app registration.
func (cs *callbackServer) redirectURI() string {
	return fmt.Sprintf("http://%s/callback", cs.listener.Addr().String())
}

// deliver reports the first result; later redirects are dropped.
func (cs *callbackServer) deliver(result callbackResult) {
	select {
	case cs.results <- result:
	default:
	}
}

func (cs *callbackServer) close() {
	_ = cs.server.Close()
}

// redirectError maps a provider error code from the redirect onto the domain
// errors.
func redirectError(code, description string) error {
	if code == "access_denied" {
		return fmt.Errorf("%w: %s", domain.ErrUserCancelled, code)
	}
	if description != "" {
		return fmt.Errorf("oauth: provider returned %s: %s", code, description)
	}
	return fmt.Errorf("oauth: provider returned %s", code)
}

func writePage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", message)
}
