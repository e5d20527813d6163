package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api/response"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/session"
	"github.com/pantau/pantau/internal/web"
)

// HomePath is where a logged in user lands.
const HomePath = "/beranda"

// AuthHandler handles login and logout.
type AuthHandler struct {
	Pages
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(p Pages, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Pages: p, auth: auth}
}

type loginView struct {
	web.Base
	Login string
	Error string
}

// Root handles GET /.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, HomePath, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, HomePath, http.StatusFound)
		return
	}
	h.Views.Render(w, http.StatusOK, "login", loginView{Base: h.base(r, "Login", "")})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	user, err := h.auth.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		de := response.AsDomainError(err)
		if de.Code == domain.ErrCodeInternalError {
			h.Logger.Error("login failed", zap.Error(err))
		}
		h.Views.Render(w, response.Status(de), "login", loginView{
			Base:  h.base(r, "Login", ""),
			Login: username,
			Error: de.Message,
		})
		return
	}

	if err := h.Sessions.Login(w, user.ID, user.Username); err != nil {
		h.fail(w, r, domain.NewInternalError(err))
		return
	}
	h.Logger.Info("user logged in", zap.String("username", user.Username))
	http.Redirect(w, r, HomePath, http.StatusFound)
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}
