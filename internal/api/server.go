package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imagify/imagify/internal/auth"
	"github.com/imagify/imagify/internal/service"
)

// Server exposes the gateway's logical operations over HTTP/JSON.
type Server struct {
	addr        string
	log         *slog.Logger
	tokens      *auth.Manager
	accounts    *service.AccountService
	generations *service.GenerationService
	orders      *service.OrderService
	payments    *service.PaymentService
	router      *chi.Mux
}

func NewServer(addr string, log *slog.Logger, tokens *auth.Manager, accounts *service.AccountService, generations *service.GenerationService, orders *service.OrderService, payments *service.PaymentService) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:        addr,
		log:         log,
		tokens:      tokens,
		accounts:    accounts,
		generations: generations,
		orders:      orders,
		payments:    payments,
		router:      r,
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("API Working"))
	})
	r.Post("/api/user/register", s.handleRegister)
	r.Post("/api/user/login", s.handleLogin)
	r.Group(func(protected chi.Router) {
		protected.Use(s.authMiddleware)
		protected.Get("/api/user/credits", s.handleCredits)
		protected.Post("/api/image/generate", s.handleGenerate)
		protected.Post("/api/payment/order", s.handleCreateOrder)
		protected.Post("/api/payment/verify", s.handleVerifyPayment)
	})
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

type contextKey string

const accountIDKey contextKey = "account_id"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			s.writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Not Authorized. Login Again"})
			return
		}
		accountID, err := s.tokens.VerifyToken(token)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Not Authorized. Login Again"})
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(accountIDKey).(int64)
	return id
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid json"})
		return
	}

	account, token, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   token,
		"user":    userPayload{Name: account.Name, Email: account.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid json"})
		return
	}

	account, token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    userPayload{Name: account.Name, Email: account.Email},
	})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.Get(r.Context(), accountIDFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"credits": account.CreditBalance,
		"user":    userPayload{Name: account.Name, Email: account.Email},
	})
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid json"})
		return
	}

	result, err := s.generations.Generate(r.Context(), accountIDFrom(r), req.Prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	mime := result.Image.Mime
	if mime == "" {
		mime = "image/png"
	}
	dataURI := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(result.Image.Bytes)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Image Generated",
		"creditBalance": result.Balance,
		"resultImage":   dataURI,
	})
}

type createOrderRequest struct {
	PlanID string `json:"planId"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid json"})
		return
	}

	handle, err := s.orders.CreateOrder(r.Context(), accountIDFrom(r), req.PlanID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transactionId": handle.TransactionID,
		"order": map[string]any{
			"id":       handle.ProviderOrderID,
			"amount":   handle.AmountMinorUnits,
			"currency": handle.Currency,
			"plan":     handle.PlanID,
			"credits":  handle.Credits,
		},
	})
}

type verifyPaymentRequest struct {
	OrderID string `json:"razorpay_order_id"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid json"})
		return
	}

	result, err := s.payments.VerifyAndSettle(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotCompleted):
			s.writeJSON(w, http.StatusOK, envelope{Success: false, Message: "Payment Not Completed"})
		case errors.Is(err, service.ErrAlreadySettled):
			s.writeJSON(w, http.StatusOK, envelope{Success: false, Message: "Payment Already Processed"})
		default:
			s.writeError(w, err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": result.Credited,
		"message": "Credits Added",
		"balance": result.Balance,
	})
}

// writeError maps the service taxonomy onto HTTP responses. Billing-affecting
// errors carry enough detail to act on; internal faults stay generic.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var insufficient *service.InsufficientCreditError
	switch {
	case errors.As(err, &insufficient):
		s.writeJSON(w, http.StatusForbidden, map[string]any{
			"success":       false,
			"message":       "No Credit Balance",
			"creditBalance": insufficient.Balance,
		})
	case errors.Is(err, service.ErrMissingPrompt):
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Prompt is required"})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidAmount):
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Missing Details"})
	case errors.Is(err, service.ErrUnknownPlan):
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Plan not found"})
	case errors.Is(err, service.ErrEmailTaken):
		s.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "User already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid credentials"})
	case errors.Is(err, service.ErrAccountNotFound):
		s.writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "User not found"})
	case errors.Is(err, service.ErrProvider):
		s.log.Error("provider failure", "err", err)
		s.writeJSON(w, http.StatusBadGateway, envelope{Success: false, Message: "Upstream provider error"})
	default:
		s.log.Error("internal error", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "Server error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encode response", "err", err)
	}
}
