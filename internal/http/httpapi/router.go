package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/http/handlers"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/middleware"
)

type RouterOptions struct {
	CORSOrigins []string
	StaticDir   string
	Log         zerolog.Logger
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Log),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/session", func(r chi.Router) {
		r.Get("/", app.SessionView)
		r.Post("/reset", app.SessionReset)
		r.Post("/source", app.UploadSource)
		r.Post("/reference", app.UploadReference)
		r.Patch("/settings", app.UpdateSettings)
		r.Put("/prompt", app.SetPrompt)
		r.Delete("/prompt", app.ClearPrompt)
		r.Post("/template", app.ApplyTemplate)
		r.Post("/generate", app.Generate)
		r.Post("/ad-copy", app.AdCopy)
		r.Post("/suggestions", app.SuggestPrompts)
		r.Post("/select", app.SelectResult)
		r.Post("/cycle", app.CycleSelection)
		r.Delete("/results/{id}", app.DeleteResult)
	})

	r.Route("/v1/edit", func(r chi.Router) {
		r.Post("/inpaint", app.Inpaint)
		r.Post("/remove-object", app.RemoveObject)
		r.Post("/enhance", app.Enhance)
		r.Post("/expand", app.Expand)
		r.Post("/palette", app.ExtractPalette)
	})

	r.Get("/v1/templates", app.ListTemplates)

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.HistoryList)
		r.Post("/{id}/restore", app.HistoryRestore)
		r.Post("/{id}/favorite", app.HistoryToggleFavorite)
		r.Get("/{id}/download", app.HistoryDownload)
		r.Delete("/{id}", app.HistoryDelete)
	})

	r.Route("/v1/prefs", func(r chi.Router) {
		r.Get("/theme", app.GetTheme)
		r.Put("/theme", app.SetTheme)
		r.Get("/brand-kits", app.ListBrandKits)
		r.Post("/brand-kits", app.SaveBrandKit)
		r.Delete("/brand-kits/{id}", app.DeleteBrandKit)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
