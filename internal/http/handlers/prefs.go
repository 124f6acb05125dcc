package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/prefs"
)

func (a *App) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme := a.Prefs.Theme(r.Context())
	a.json(w, http.StatusOK, map[string]string{"theme": theme})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (a *App) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Prefs.SetTheme(r.Context(), req.Theme); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_theme", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func (a *App) ListBrandKits(w http.ResponseWriter, r *http.Request) {
	kits, err := a.Prefs.ListBrandKits(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if kits == nil {
		kits = []prefs.BrandKit{}
	}
	a.json(w, http.StatusOK, map[string]any{"brand_kits": kits})
}

func (a *App) SaveBrandKit(w http.ResponseWriter, r *http.Request) {
	var kit prefs.BrandKit
	if !a.decode(w, r, &kit) {
		return
	}
	if kit.Name == "" {
		a.error(w, http.StatusBadRequest, "invalid_payload", "name is required")
		return
	}
	saved, err := a.Prefs.SaveBrandKit(r.Context(), kit)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, saved)
}

func (a *App) DeleteBrandKit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Prefs.DeleteBrandKit(r.Context(), id); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
