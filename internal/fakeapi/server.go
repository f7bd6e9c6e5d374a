// Package fakeapi is an in-process double of the storefront's external REST
// API for local development and end-to-end tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"

	httpmiddleware "github.com/wolfeidau/storefront/internal/http"
	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/models"
)

// Config configures the API double.
type Config struct {
	TokenTTL time.Duration
	Seeds    []Seed
	// CORSOrigins may call the API from a browser.
	CORSOrigins []string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// DefaultConfig returns the development configuration.
func DefaultConfig() Config {
	return Config{
		TokenTTL:    24 * time.Hour,
		Seeds:       DefaultSeeds(),
		CORSOrigins: []string{"http://localhost:3000"},
		BcryptCost:  bcrypt.DefaultCost,
	}
}

// Server is the API double.
type Server struct {
	cfg      Config
	tokens   *tokenIssuer
	accounts *accounts
	catalog  *catalog
	log      zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	tokens, err := newTokenIssuer(cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	accts, err := newAccounts(cfg.Seeds, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		tokens:   tokens,
		accounts: accts,
		catalog:  newCatalog(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the API with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("GET /products", s.listProducts)

	mux.Handle("POST /auth/logout", s.requireAuth(s.logout))
	mux.Handle("GET /auth/me", s.requireAuth(s.me))
	mux.Handle("GET /orders", s.requireAuth(s.listOrders))
	mux.Handle("GET /orders/{id}", s.requireAuth(s.getOrder))
	mux.Handle("POST /orders", s.requireAuth(s.createOrder))
	mux.Handle("GET /addresses", s.requireAuth(s.listAddresses))
	mux.Handle("POST /addresses", s.requireAuth(s.createAddress))
	mux.Handle("POST /payments/intents", s.requireAuth(s.createPaymentIntent))

	return httpmiddleware.Chain(mux,
		httpmiddleware.RequestIDMiddleware(),
		httpmiddleware.ClientIPMiddleware(),
		logger.Requests(s.log),
		withCORS(s.cfg.CORSOrigins),
	)
}

// IssueToken mints a credential for the seeded account with email.
func (s *Server) IssueToken(email string) (string, error) {
	u, ok := s.accounts.lookupEmail(email)
	if !ok {
		return "", fmt.Errorf("unknown account %s", email)
	}
	return s.tokens.sign(u.ID, u.Role)
}

// Revoke invalidates token so the next call using it gets a 401.
func (s *Server) Revoke(token string) error {
	claims, err := s.tokens.verify(token)
	if err != nil {
		return err
	}
	s.tokens.revoke(claims)
	return nil
}

func withCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", httpmiddleware.RequestIDHeader},
		ExposedHeaders: []string{httpmiddleware.RequestIDHeader},
		// bearer tokens, not cookies
		AllowCredentials: false,
	})
	return middleware.Handler
}

// requireAuth rejects requests without a valid bearer token with 401.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, models.User)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.verify(tokenStr)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("token rejected")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		u, ok := s.accounts.get(claims.Subject)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown principal")
			return
		}

		next(w, r, u)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := s.accounts.authenticate(req.Email, req.Password)
	if err != nil {
		hlog.FromRequest(r).Info().Str("email", req.Email).Msg("login rejected")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := s.tokens.sign(u.ID, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	hlog.FromRequest(r).Info().
		Str("user_id", u.ID).
		Str("credential", logger.Fingerprint(token)).
		Msg("login accepted")

	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ models.User) {
	tokenStr, _ := bearerToken(r)
	if err := s.Revoke(tokenStr); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, u models.User) {
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, s.catalog.listProducts())
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request, u models.User) {
	writeJSON(w, http.StatusOK, s.catalog.listOrders(u.ID, u.IsAdmin()))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, u models.User) {
	o, err := s.catalog.order(r.PathValue("id"), u.ID, u.IsAdmin())
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, u models.User) {
	var o models.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order")
		return
	}

	placed, err := s.catalog.placeOrder(u.ID, o)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order needs a saved address and known products")
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) listAddresses(w http.ResponseWriter, _ *http.Request, u models.User) {
	addresses := s.catalog.listAddresses(u.ID)
	if addresses == nil {
		addresses = []models.Address{}
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request, u models.User) {
	var a models.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	saved, err := s.catalog.addAddress(u.ID, a)
	if err != nil {
		writeError(w, http.StatusBadRequest, "street and city are required")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request, u models.User) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	o, err := s.catalog.order(req.OrderID, u.ID, false)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusCreated, models.PaymentIntent{
		ID:           "pi_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		OrderID:      o.ID,
		Amount:       o.Total,
		Currency:     "AUD",
		ClientSecret: uuid.NewString(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
