package httpapi

import (
	"net/http"
	"strings"

	"translogica.org/internal/audit"
	"translogica.org/internal/auth"
	"translogica.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	user, token, err := a.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		obs.ObserveLogin("failure")
		// The audit trail never records which half of the pair failed, nor
		// whether the username exists.
		_ = audit.LogEvent(ctx, "auth.login.failure", map[string]any{
			"username": strings.TrimSpace(req.Username),
		})
		handleAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("success")
	obs.SetActiveSessions(a.svc.SessionCount())
	_ = audit.LogEvent(auth.ContextWithUser(ctx, user), "auth.login.success", map[string]any{
		"username": user.Username,
		"role":     user.Role.String(),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	// Logout succeeds whether or not a session was live.
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	if err := a.svc.Logout(ctx, sessionID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	obs.SetActiveSessions(a.svc.SessionCount())
	if sessionID != "" {
		_ = audit.LogEvent(ctx, "auth.logout", nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}

func (a *API) handleAuthzRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	route := strings.TrimSpace(r.URL.Query().Get("route"))
	if route == "" {
		writeError(w, r, http.StatusBadRequest, "route query parameter is required")
		return
	}
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"route":   route,
		"allowed": a.svc.CanReachRoute(sessionID, route),
	})
}

func (a *API) handleAuthzAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if action == "" {
		writeError(w, r, http.StatusBadRequest, "action query parameter is required")
		return
	}
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"action":  action,
		"allowed": a.svc.CanPerform(sessionID, action),
	})
}
