package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/pkg/zip"
)

type historyEntryView struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
	IsFavorite bool      `json:"is_favorite"`
	Results    []string  `json:"result_urls"`
	Palette    []string  `json:"palette,omitempty"`
}

func entryView(e *domain.HistoryEntry) historyEntryView {
	v := historyEntryView{
		ID:         e.ID,
		CreatedAt:  e.CreatedAt,
		Title:      e.Title,
		Prompt:     e.Prompt,
		IsFavorite: e.IsFavorite,
		Palette:    e.Palette,
	}
	for _, r := range e.ResultsSnapshot {
		if r.Content != nil {
			v.Results = append(v.Results, r.Content.URL)
		}
	}
	return v
}

// HistoryList returns entries newest first, optionally filtered by ?q= title
// substring and ?favorites=true.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	favorites := r.URL.Query().Get("favorites") == "true"
	entries := a.Studio.History().Find(q, favorites)
	views := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView(e))
	}
	a.json(w, http.StatusOK, map[string]any{"entries": views})
}

// HistoryRestore clones a past entry back into the live session. The entry
// stays in the log.
func (a *App) HistoryRestore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Studio.Restore(id); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.View())
}

func (a *App) HistoryToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fav, err := a.Studio.History().ToggleFavorite(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

func (a *App) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Studio.History().Delete(id); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HistoryDownload bundles the entry's ready results into a zip archive.
func (a *App) HistoryDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := a.Studio.History().Get(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	var assets []zip.Asset
	for i, res := range entry.ResultsSnapshot {
		if res.Status != domain.ResultReady || res.Content == nil || len(res.Content.Data) == 0 {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%02d-%s%s", i+1, res.ID[:8], extForMIME(res.Content.MIME)),
			MIME:     res.Content.MIME,
			Data:     res.Content.Data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusUnprocessableEntity, "empty_entry", "entry has no downloadable results")
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
