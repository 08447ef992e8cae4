package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jwpark-dev/auth-backend/internal/middleware"
	"github.com/jwpark-dev/auth-backend/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request, hashes the password and creates the user.
	//
	// "req" parameter contains name, email, password and optional role and image.
	//
	// If the email is already taken or validation fails, the error will be returned together with "nil" value.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Login authenticates a user and issues a new session token.
	//
	// "req" parameter contains email and password.
	//
	// If the email is unknown or the password does not match, the error will be returned together with "nil" and empty token values.
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Method Logout clears the stored session token for a user.
	Logout(ctx context.Context, userID string) error
}

// UserHandler handles user account HTTP requests
type UserHandler struct {
	BaseHandler
	authService AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all user handler routes under /api/users
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", h.Root)
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/auth", h.Auth)
			r.Get("/logout", h.Logout)
		})
	})
}

// Root handles GET /
// @Summary Health greeting
// @Description Plain-text greeting used as a liveness check.
// @Tags root
// @Produce plain
// @Success 200 {string} string "Hello World"
// @Router / [get]
func (h *UserHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello World"))
}

// Register handles POST /api/users/register
//
// Failures are reported with HTTP 200 and a success:false body; only the
// body discriminates the outcome. That is how the original API behaved and
// its clients depend on it.
// @Summary Register a new user
// @Description Create a user account. The password is stored only as a salted hash.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 200 {object} map[string]any "success flag, err message on failure"
// @Router /api/users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondJSON(w, http.StatusOK, map[string]any{"success": false, "err": "invalid request body"})
		return
	}

	if _, err := h.authService.Register(r.Context(), &req); err != nil {
		h.Logger.Error("failed to register user", zap.Error(err))
		h.RespondJSON(w, http.StatusOK, map[string]any{"success": false, "err": err.Error()})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Login handles POST /api/users/login
// @Summary Login
// @Description Authenticate with email and password. On success the session token is set as the x_auth cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]any "loginSuccess and userId"
// @Failure 400 {object} map[string]any "loginSuccess:false and message"
// @Router /api/users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondJSON(w, http.StatusBadRequest, map[string]any{"loginSuccess": false, "message": "invalid request body"})
		return
	}

	user, sessionToken, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.Logger.Info("failed to login user", zap.Error(err))
		h.RespondJSON(w, http.StatusBadRequest, map[string]any{"loginSuccess": false, "message": err.Error()})
		return
	}

	// The cookie lives until the browser closes; server-side state decides
	// whether the token inside it is still good
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.RespondJSON(w, http.StatusOK, map[string]any{"loginSuccess": true, "userId": user.ID})
}

// Auth handles GET /api/users/auth
// @Summary Current session profile
// @Description Return the authenticated user's public profile fields.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]any "profile fields, or isAuth:false when unauthenticated"
// @Router /api/users/auth [get]
func (h *UserHandler) Auth(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondJSON(w, http.StatusOK, map[string]any{"isAuth": false, "error": true})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{
		"_id":     user.ID,
		"isAdmin": user.IsAdmin(),
		"isAuth":  true,
		"email":   user.Email,
		"name":    user.Name,
		"role":    user.Role,
		"image":   user.Image,
	})
}

// Logout handles GET /api/users/logout
//
// The x_auth cookie is not cleared; the stored token is, so the cookie the
// client still holds simply stops matching server state.
// @Summary Logout
// @Description Invalidate the current session by clearing the stored token.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]any "success flag, err message on failure"
// @Router /api/users/logout [get]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		h.RespondJSON(w, http.StatusOK, map[string]any{"success": false, "err": "no authenticated user"})
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		h.Logger.Error("failed to logout user", zap.String("user_id", user.ID), zap.Error(err))
		h.RespondJSON(w, http.StatusOK, map[string]any{"success": false, "err": err.Error()})
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}
