package handlers

import (
	"encoding/base64"
	"net/http"
)

type editRequest struct {
	MaskBase64 string `json:"mask_base64,omitempty"`
	Prompt     string `json:"prompt,omitempty"`
	Direction  string `json:"direction,omitempty"`
}

func (r editRequest) mask() ([]byte, error) {
	if r.MaskBase64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(r.MaskBase64)
}

// Edit operations are synchronous: the response carries the session view
// with the selected result's content replaced. A completion that lost its
// target (selection deleted mid-flight) is a no-op.

func (a *App) Inpaint(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !a.decode(w, r, &req) {
		return
	}
	mask, err := req.mask()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid mask payload")
		return
	}
	if _, err := a.Studio.Inpaint(r.Context(), mask, req.Prompt); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) RemoveObject(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !a.decode(w, r, &req) {
		return
	}
	mask, err := req.mask()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid mask payload")
		return
	}
	if _, err := a.Studio.RemoveObject(r.Context(), mask); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Studio.Enhance(r.Context(), req.Prompt); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) Expand(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Studio.Expand(r.Context(), req.Direction); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) ExtractPalette(w http.ResponseWriter, r *http.Request) {
	colors, err := a.Studio.ExtractPalette(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string][]string{"palette": colors})
}
