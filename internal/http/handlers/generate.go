package handlers

import (
	"net/http"
)

type generateResponse struct {
	ResultIDs []string `json:"result_ids"`
	Status    string   `json:"status"`
}

// Generate kicks off a batch run. The response carries the placeholder IDs
// so the client can bind slots immediately; completion is observed through
// the session view.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	handle, err := a.Studio.Generate()
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, generateResponse{ResultIDs: handle.ResultIDs, Status: "running"})
}

// AdCopy requests structured marketing copy for the current subject.
func (a *App) AdCopy(w http.ResponseWriter, r *http.Request) {
	copyOut, err := a.Studio.GenerateAdCopy(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, copyOut)
}

// SuggestPrompts returns alternative prompt phrasings for the uploaded
// subject.
func (a *App) SuggestPrompts(w http.ResponseWriter, r *http.Request) {
	suggestions, err := a.Studio.SuggestPrompts(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}
