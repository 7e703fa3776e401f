package handlers

import (
	"net/http"
	"strings"

	applog "barkeep/internal/log"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        uint   `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Login reports the session state and processes sign-in submissions. Both JSON
// bodies and form posts are accepted.
func Login(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling login request", "method", r.Method)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, currentSession(r, true))
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
			return
		}

		var payload loginRequest
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			if !decodeJSON(w, r, &payload) {
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				applog.Debug(r.Context(), "failed to parse login form", "error", err)
				writeJSONError(w, http.StatusBadRequest, "invalid form submission")
				return
			}
			payload = loginRequest{
				Email:    strings.TrimSpace(r.PostFormValue("email")),
				Password: r.PostFormValue("password"),
			}
			if !validatePayload(w, r, &payload) {
				return
			}
		}

		email := strings.TrimSpace(payload.Email)
		if _, ok := authenticate(r, email, payload.Password); !ok {
			applog.Debug(r.Context(), "authentication failed", "email", strings.ToLower(email))
			message := sessionManager.PopString(r.Context(), sessionLoginMessageKey)
			if message == "" {
				message = "We were unable to sign you in. Please try again."
			}
			writeJSONError(w, http.StatusUnauthorized, message)
			return
		}

		applog.Info(r.Context(), "owner signed in", "email", strings.ToLower(email))
		writeJSON(w, http.StatusOK, currentSession(r, false))
	default:
		applog.Debug(r.Context(), "method not allowed for login", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func currentSession(r *http.Request, popMessage bool) sessionResponse {
	resp := sessionResponse{Authenticated: ActiveSession(r)}
	if sessionManager == nil {
		return resp
	}
	if popMessage {
		resp.Message = sessionManager.PopString(r.Context(), sessionLoginMessageKey)
	}
	if id, ok := currentUserID(r); ok && resp.Authenticated {
		resp.UserID = id
		resp.Email = sessionManager.GetString(r.Context(), sessionUserEmailKey)
		resp.Name = sessionManager.GetString(r.Context(), sessionUserNameKey)
	}
	return resp
}
