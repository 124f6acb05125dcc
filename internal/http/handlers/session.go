package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/studio"
)

type uploadRequest struct {
	DataBase64 string `json:"data_base64"`
	MIME       string `json:"mime"`
	Filename   string `json:"filename"`
}

func (r uploadRequest) bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.DataBase64)
}

// SessionView renders the current view-state snapshot.
func (a *App) SessionView(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.View())
}

// SessionReset starts over: live session state is dropped, history survives.
func (a *App) SessionReset(w http.ResponseWriter, r *http.Request) {
	a.Studio.StartOver()
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) UploadSource(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !a.decode(w, r, &req) {
		return
	}
	data, err := req.bytes()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid base64 payload")
		return
	}
	if _, err := a.Studio.UploadSource(data, req.MIME, req.Filename); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, a.Studio.View())
}

func (a *App) UploadReference(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !a.decode(w, r, &req) {
		return
	}
	data, err := req.bytes()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid base64 payload")
		return
	}
	if _, err := a.Studio.UploadReference(data, req.MIME, req.Filename); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if !a.decode(w, r, &patch) {
		return
	}
	if _, err := a.Studio.UpdateSettings(patch); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

type promptRequest struct {
	Text string `json:"text"`
}

func (a *App) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt text required")
		return
	}
	a.Studio.SetPromptOverride(req.Text)
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) ClearPrompt(w http.ResponseWriter, r *http.Request) {
	a.Studio.ClearPromptOverride()
	a.json(w, http.StatusOK, a.Studio.View())
}

type templateRequest struct {
	ID string `json:"id"`
}

func (a *App) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Studio.ApplyTemplate(req.ID); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string][]studio.Template{"templates": studio.Templates()})
}

type selectRequest struct {
	ResultID string `json:"result_id"`
}

func (a *App) SelectResult(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Studio.Select(req.ResultID); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

type cycleRequest struct {
	Delta int `json:"delta"`
}

// CycleSelection backs the left/right keyboard accelerators.
func (a *App) CycleSelection(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}
	a.Studio.CycleSelection(req.Delta)
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := a.Studio.DeleteResult(chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}
