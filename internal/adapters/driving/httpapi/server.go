// Package httpapi exposes the SMS gateway bridge over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driving"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// missingFieldsMessage is the error text for a request with a missing
// phone number or message body.
const missingFieldsMessage = "Phone number and message are required."

// signatureAuthMessage is the error text when a request asks for the Teams
// signature without a signed-in account to build it from.
const signatureAuthMessage = "Sign in to include the Teams signature."

// smsRequest is the JSON body of POST /sms. Signature asks for the signed-in
// account's Teams signature to be appended to the body.
type smsRequest struct {
	To        string `json:"to" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Signature bool   `json:"signature"`
}

// Server serves the SMS gateway endpoint.
type Server struct {
	sender   driving.SMSSender
	session  driving.SessionService
	validate *validator.Validate
	server   *http.Server
}

// NewServer creates the gateway server listening on addr.
func NewServer(addr string, sender driving.SMSSender, session driving.SessionService) *Server {
	s := &Server{
		sender:   sender,
		session:  session,
		validate: validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.handleSendSMS)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	logger.Info("gateway: listening on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req smsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, missingFieldsMessage)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, missingFieldsMessage)
		return
	}

	body := req.Body
	if req.Signature {
		cred, err := s.session.ActiveCredential(r.Context())
		if err != nil || cred == nil {
			writeError(w, http.StatusUnauthorized, signatureAuthMessage)
			return
		}
		body += cred.Signature()
	}

	sid, err := s.sender.Send(r.Context(), req.To, body)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, missingFieldsMessage)
			return
		}
		logger.Warn("gateway: send failed (request %s): %v", requestID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Debug("gateway: sent sms (request %s, sid %s)", requestID, sid)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sid":     sid,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("gateway: encode response: %v", err)
	}
}
