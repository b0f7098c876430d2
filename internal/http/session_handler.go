package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/techhub/internal/auth"
	"github.com/fjod/techhub/internal/domain"
	"github.com/fjod/techhub/internal/notify"
	"github.com/fjod/techhub/internal/service"
	"go.uber.org/zap"
)

type SessionHandler struct {
	responder
	cart     *service.CartService
	notifier notify.Notifier
	timeout  time.Duration
}

func NewSessionHandler(cart *service.CartService, notifier notify.Notifier, log *zap.Logger, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		responder: responder{log: log},
		cart:      cart,
		notifier:  notifier,
		timeout:   timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	LoggedIn      bool                  `json:"logged_in"`
	User          *domain.Session       `json:"user"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	user := h.cart.CurrentUser(ctx, shopperID)
	h.respondJSON(w, http.StatusOK, SessionResponse{LoggedIn: user != nil, User: user})
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.startSession(w, r, auth.ValidateLogin(req.Email, req.Password), req.Email, auth.NameFromEmail(req.Email), "Welcome, %s!")
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.startSession(w, r, auth.ValidateRegistration(req.Name, req.Email, req.Password), req.Email, req.Name, "Account created! Welcome, %s")
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	if err := h.cart.Logout(ctx, shopperID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to end session")
		return
	}

	h.respondJSON(w, http.StatusOK, SessionResponse{LoggedIn: false, Notifications: drainNotifications(ctx)})
}

func (h *SessionHandler) startSession(w http.ResponseWriter, r *http.Request, validation error, email, name, welcome string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopperID := getShopperID(r.Context())
	if shopperID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing shopper session")
		return
	}

	var invalid *domain.ValidationError
	if errors.As(validation, &invalid) {
		notify.Error(ctx, h.notifier, "Please check the highlighted fields")
		h.respondValidation(ctx, w, invalid)
		return
	}

	user, err := h.cart.Login(ctx, shopperID, email, name)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to start session")
		return
	}

	notify.Success(ctx, h.notifier, fmt.Sprintf(welcome, user.DisplayName()))
	h.respondJSON(w, http.StatusOK, SessionResponse{LoggedIn: true, User: user, Notifications: drainNotifications(ctx)})
}
