package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zheli/invoice-bun/internal/httputil"
	"github.com/zheli/invoice-bun/internal/logging"
	"github.com/zheli/invoice-bun/internal/ratelimit"
	"github.com/zheli/invoice-bun/internal/user"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// Handler contains HTTP handlers for authentication and user endpoints
type Handler struct {
	service      *Service
	provider     IdentityProvider
	rateLimiter  *ratelimit.Limiter
	logger       *logging.Logger
	isProduction bool
	frontendURL  string
}

func NewHandler(
	service *Service,
	provider IdentityProvider,
	rateLimiter *ratelimit.Limiter,
	logger *logging.Logger,
	isProduction bool,
	frontendURL string,
) *Handler {
	return &Handler{
		service:      service,
		provider:     provider,
		rateLimiter:  rateLimiter,
		logger:       logger,
		isProduction: isProduction,
		frontendURL:  frontendURL,
	}
}

// TokenResponse is the successful login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUserRequest is the registration request body. Either password or
// hashed_password may carry the plaintext; it is always hashed server-side.
type CreateUserRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	HashedPassword string  `json:"hashed_password"`
	FullName       *string `json:"full_name"`
	CompanyName    *string `json:"company_name"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AccessToken handles password login
// @Summary      Obtain an access token
// @Description  Authenticate with email (username) and password form fields and receive a bearer token
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username formData string true "Email address"
// @Param        password formData string true "Password"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Bad credentials or inactive account"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /auth/access-token [post]
func (h *Handler) AccessToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid login form body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	logger = logger.WithFields(map[string]any{"email": email})

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	token, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "incorrect email or password", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInactiveUser) {
			logger.Warn("login failed: inactive user")
			httputil.RespondErrorWithCode(w, "inactive user", httputil.CodeInactiveUser, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, TokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
}

// GoogleLogin redirects the caller to Google's authorization endpoint
// @Summary      Start Google login
// @Tags         auth
// @Success      302
// @Router       /auth/google/login [get]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	state, err := generateRandomToken()
	if err != nil {
		logger.Error("failed to generate oauth state", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to start login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback exchanges the provider response for a local session token
// @Summary      Google login callback
// @Description  Exchanges the authorization code, logs the user in (creating a local account on first login) and redirects to the frontend with the token
// @Tags         auth
// @Success      307
// @Failure      400 {object} ErrorResponse "Provider error or missing fields"
// @Router       /auth/google/callback [get]
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		logger.Warn("google login failed at provider", "error", errParam)
		httputil.RespondErrorWithCode(w, "login was not completed", httputil.CodeOAuthFailed, http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		logger.Warn("google login failed: state mismatch")
		httputil.RespondErrorWithCode(w, "invalid oauth state", httputil.CodeOAuthFailed, http.StatusBadRequest)
		return
	}

	// State cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	profile, err := h.provider.FetchProfile(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Warn("google login failed: code exchange", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify login with provider", httputil.CodeOAuthFailed, http.StatusBadRequest)
		return
	}

	token, err := h.service.LoginWithGoogle(r.Context(), profile)
	if err != nil {
		if errors.Is(err, ErrProviderEmailMissing) || errors.Is(err, ErrProviderIDMissing) {
			logger.Warn("google login failed: incomplete profile", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeOAuthFailed, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInactiveUser) {
			logger.Warn("google login failed: inactive user")
			httputil.RespondErrorWithCode(w, "inactive user", httputil.CodeInactiveUser, http.StatusBadRequest)
			return
		}
		logger.Error("google login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in via google")

	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", h.frontendURL, token), http.StatusTemporaryRedirect)
}

// CreateUser handles user registration
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "Registration fields"
// @Success      201 {object} user.User
// @Failure      400 {object} ErrorResponse "Validation error or email already taken"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /users/ [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	password := req.Password
	if password == "" {
		password = req.HashedPassword
	}

	newUser, err := h.service.Register(r.Context(), req.Email, password, req.FullName, req.CompanyName)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "the user with this email already exists in the system", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrEmailRequired) || errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidEmailFormat) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      403 {object} ErrorResponse "Not authenticated"
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	httputil.RespondJSON(w, currentUser, http.StatusOK)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
