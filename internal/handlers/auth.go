package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pennywise-app/apiserver/internal/services"
)

// AuthHandler provides registration and JWT endpoints.
type AuthHandler struct {
	userService  *services.UserService
	tokenService *services.TokenService
	validate     *validator.Validate
	opts         Options
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokenService *services.TokenService, opts Options) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		opts:         opts,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, tokenService *services.TokenService, opts Options) {
	handler := NewAuthHandler(userService, tokenService, opts)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
}

// RequireAuth enforces a bearer access token and injects the caller id into
// the request context.
func RequireAuth(tokenService *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := tokenService.Verify(tokenString, false)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if !h.validCredentials(req) {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if _, err := h.userService.Register(r.Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "username already exists")
		case errors.Is(err, services.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.opts.writeInternalError(w, r, "failed to register user", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login verifies credentials and returns an access/refresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if !h.validCredentials(req) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.opts.writeInternalError(w, r, "failed to authenticate", err)
		return
	}

	pair, err := h.tokenService.IssuePair(user.ID)
	if err != nil {
		h.opts.writeInternalError(w, r, "failed to create token", err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a bearer refresh token for a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tokenString, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	access, err := h.tokenService.Refresh(tokenString)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.opts.writeInternalError(w, r, "failed to create token", err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: access})
}

// decodeCredentials answers 400 only when the body is not valid JSON.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return CredentialsRequest{}, false
	}
	return req, true
}

// validCredentials reports whether both fields are present. Usernames are
// matched exactly, so a blank one is rejected but a padded one is kept as is.
func (h *AuthHandler) validCredentials(req CredentialsRequest) bool {
	if err := h.validate.Struct(req); err != nil {
		return false
	}
	return strings.TrimSpace(req.Username) != ""
}

// CredentialsRequest is the body of /register and /login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
