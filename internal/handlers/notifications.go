package handlers

import (
	"net/http"

	applog "barkeep/internal/log"
)

type notificationsResponse struct {
	Notifications []string `json:"notifications"`
}

// pushNotification queues a dismissible alert for the next notifications poll.
func pushNotification(r *http.Request, message string) {
	if sessionManager == nil {
		return
	}
	pending, _ := sessionManager.Get(r.Context(), sessionNotificationsKey).([]string)
	sessionManager.Put(r.Context(), sessionNotificationsKey, append(pending, message))
}

// Notifications returns and clears the pending alerts of the session.
func Notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := notificationsResponse{Notifications: []string{}}
	if sessionManager != nil {
		if pending, ok := sessionManager.Pop(r.Context(), sessionNotificationsKey).([]string); ok {
			resp.Notifications = pending
		}
	}
	applog.Debug(r.Context(), "notifications delivered", "count", len(resp.Notifications))
	writeJSON(w, http.StatusOK, resp)
}
