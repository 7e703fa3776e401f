package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"barkeep/internal/catalog"
	applog "barkeep/internal/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads and validates a request body. It writes the error response
// itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return validatePayload(w, r, dst)
}

func validatePayload(w http.ResponseWriter, r *http.Request, payload any) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		applog.Debug(r.Context(), "request payload failed validation", "path", r.URL.Path, "errors", messages)
		writeJSONError(w, http.StatusBadRequest, strings.Join(messages, "; "))
		return false
	}

	applog.Error(r.Context(), "request payload could not be validated", "error", err)
	writeJSONError(w, http.StatusBadRequest, "invalid request payload")
	return false
}

// writeCatalogError maps the catalog error taxonomy onto HTTP statuses.
// Storage failures also leave a dismissible notification in the session.
func writeCatalogError(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, catalog.ErrInvalidLink), errors.Is(err, catalog.ErrIngredientInUse):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidIngredient),
		errors.Is(err, catalog.ErrInvalidCocktail),
		errors.Is(err, catalog.ErrInvalidTag):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrStorageUnavailable):
		applog.Error(ctx, "storage failure", "action", action, "error", err)
		pushNotification(r, fmt.Sprintf("Could not %s. Please try again.", action))
		writeJSONError(w, http.StatusServiceUnavailable, fmt.Sprintf("unable to %s", action))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		applog.Debug(ctx, "request ended before completion", "action", action, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		applog.Error(ctx, "unexpected failure", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("unable to %s", action))
	}
}

// resourcePath splits the request path below prefix into segments.
func resourcePath(r *http.Request, prefix string) []string {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func servicesReady(w http.ResponseWriter, r *http.Request) bool {
	if barService == nil || catalogStore == nil {
		applog.Debug(r.Context(), "api request without configured services", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}
