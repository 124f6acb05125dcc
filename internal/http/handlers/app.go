// Package handlers exposes the studio controller over HTTP. Handlers stay
// thin: decode the intent, call the controller, render the view state or the
// error envelope.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/prefs"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/studio"
)

type App struct {
	Studio *studio.Controller
	Prefs  *prefs.Store
	Log    zerolog.Logger
}

func NewApp(ctrl *studio.Controller, prefsStore *prefs.Store, log zerolog.Logger) *App {
	return &App{Studio: ctrl, Prefs: prefsStore, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, map[string]errorBody{"error": {Code: slug, Message: msg}})
}

// fail maps domain errors onto the HTTP error envelope, carrying the retry
// affordance for remote failures.
func (a *App) fail(w http.ResponseWriter, err error) {
	var (
		pre    *domain.PreconditionError
		remote *domain.RemoteError
		parse  *domain.ParseError
		vErrs  validator.ValidationErrors
	)
	switch {
	case errors.Is(err, domain.ErrSessionBusy):
		a.error(w, http.StatusConflict, "busy", "a generation run is already in flight")
	case errors.Is(err, domain.ErrResultBusy):
		a.error(w, http.StatusConflict, "result_busy", "an edit is already in flight for this result")
	case errors.Is(err, domain.ErrNoSelection):
		a.error(w, http.StatusUnprocessableEntity, "no_selection", "no result selected")
	case errors.Is(err, domain.ErrResultNotReady):
		a.error(w, http.StatusUnprocessableEntity, "not_ready", "selected result is not ready")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.As(err, &pre):
		a.error(w, http.StatusUnprocessableEntity, "precondition_failed", pre.Error())
	case errors.As(err, &remote):
		a.json(w, http.StatusBadGateway, map[string]errorBody{"error": {
			Code:      string(remote.Kind) + "_failed",
			Message:   remote.Error(),
			Retryable: remote.Retryable(),
		}})
	case errors.As(err, &parse):
		a.error(w, http.StatusBadGateway, "parse_failed", parse.Error())
	case errors.As(err, &vErrs):
		a.error(w, http.StatusBadRequest, "invalid_settings", err.Error())
	default:
		a.Log.Error().Err(err).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
