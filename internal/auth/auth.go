package auth

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/auth/config"
	"github.com/iurnickita/clarsix/internal/service"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/store"
)

type Auth interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	cookieSession = "clarsixSession"
	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

type sessionKey struct{}

type auth struct {
	cfg     config.Config
	service service.Service
	zaplog  *zap.Logger
}

func NewAuth(cfg config.Config, service service.Service, zaplog *zap.Logger) Auth {
	return &auth{cfg: cfg, service: service, zaplog: zaplog}
}

// SessionFromContext - сессия, положенная в контекст запроса middleware.
func SessionFromContext(ctx context.Context) (store.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(store.Session)
	return session, ok
}

// Unauthorized завершает сессию в браузере и отправляет на страницу входа.
func Unauthorized(w http.ResponseWriter) {
	clearCookie(w)
	writeJSON(w, http.StatusUnauthorized, map[string]string{"redirect": loginPath})
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieSession,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

type LoginJSONRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	// как и удаленный сервис, принимаем форму; JSON тоже
	var credentials LoginJSONRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		credentials.Username = r.PostForm.Get("username")
		credentials.Password = r.PostForm.Get("password")
	}

	session, err := a.service.Login(r.Context(), credentials.Username, credentials.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientData):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required"})
		case errors.Is(err, apiclient.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Incorrect username or password"})
		case errors.Is(err, apiclient.ErrTransport):
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Service unavailable"})
		default:
			a.zaplog.Warn("login failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Login failed"})
		}
		return
	}

	cookie := &http.Cookie{
		Name:     cookieSession,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if a.cfg.CookieMaxAge > 0 {
		cookie.MaxAge = int(a.cfg.CookieMaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]any{"viewer": session.Viewer, "redirect": dashboardPath})
}

func (a *auth) Register(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, err := a.service.Register(r.Context(), req)
	if err != nil {
		var apiErr *apiclient.APIError
		switch {
		case errors.Is(err, service.ErrInsufficientData):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name, email and password are required"})
		case errors.As(err, &apiErr):
			writeJSON(w, apiErr.StatusCode, map[string]string{"error": apiErr.Detail})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Registration failed"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "redirect": loginPath})
}

func (a *auth) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieSession); err == nil {
		if err := a.service.Logout(r.Context(), cookie.Value); err != nil {
			a.zaplog.Warn("logout failed", zap.Error(err))
		}
	}
	clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"redirect": loginPath})
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// сессия пользователя
		cookie, err := r.Cookie(cookieSession)
		if err != nil {
			Unauthorized(w)
			return
		}
		session, err := a.service.Session(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				a.zaplog.Error("session lookup failed", zap.Error(err))
			}
			Unauthorized(w)
			return
		}

		// передаём управление хендлеру
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
