package httpapi

import (
	"net/http"
	"strings"

	"translogica.org/internal/audit"
	"translogica.org/internal/auth"
)

type createUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CIN         string `json:"cin"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Password    string `json:"password"`
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
	CIN         *string `json:"cin"`
	City        *string `json:"city"`
	Address     *string `json:"address"`
}

type listUsersResponse struct {
	Items []auth.User `json:"items"`
	Count int         `json:"count"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, id)
	case http.MethodPatch:
		a.updateUser(w, r, id)
	case http.MethodDelete:
		a.deleteUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	users, err := a.svc.ListUsers(sessionID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listUsersResponse{Items: users, Count: len(users)})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id string) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	user, err := a.svc.FindUser(sessionID, id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, _ := auth.SessionIDFromContext(r.Context())
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	created, err := a.svc.AddUser(ctx, sessionID, auth.NewUser{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        role,
		CIN:         req.CIN,
		City:        req.City,
		Address:     req.Address,
		Secret:      req.Password,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(ctx, "user.create", map[string]any{
		"user_id":  created.ID,
		"username": created.Username,
		"role":     created.Role.String(),
	})
	w.Header().Set("Location", "/v1/users/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := auth.UserUpdate{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		CIN:         req.CIN,
		City:        req.City,
		Address:     req.Address,
	}
	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd.Role = &role
	}

	sessionID, _ := auth.SessionIDFromContext(r.Context())
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	updated, err := a.svc.UpdateUser(ctx, sessionID, id, upd)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(ctx, "user.update", map[string]any{
		"user_id": updated.ID,
		"role":    updated.Role.String(),
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	if err := a.svc.DeleteUser(ctx, sessionID, id); err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(ctx, "user.delete", map[string]any{
		"user_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
