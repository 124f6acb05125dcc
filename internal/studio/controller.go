// Package studio implements the creative-session core: the generation state
// machine, the edit pipeline, prompt synthesis and the controller that owns
// the single live session.
package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/history"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/storage"
)

const descMemoTTL = 24 * time.Hour

// Options configures a Controller.
type Options struct {
	AI      ai.Service
	Files   *storage.FileStore
	BaseURL string
	History *history.Store
	Logger  zerolog.Logger
}

// Controller owns the live session and the history log, and serializes every
// mutation behind one lock. Asynchronous chains (derivations, batch fan-out,
// edits) re-enter under the lock and write back by stable ID plus a session
// epoch, so completions belonging to an abandoned session are discarded
// instead of corrupting the current one.
type Controller struct {
	ai       ai.Service
	files    *storage.FileStore
	baseURL  string
	history  *history.Store
	log      zerolog.Logger
	validate *validator.Validate
	descMemo *cache.Cache

	// runCtx backs asynchronous chains. Request contexts end with the HTTP
	// request; in-flight generations and derivations must not.
	runCtx context.Context

	mu      sync.Mutex
	session *domain.Session
	assets  *AssetStore
	epoch   uint64
	running bool
	editing map[string]struct{}
}

func NewController(opts Options) *Controller {
	hist := opts.History
	if hist == nil {
		hist = history.NewStore()
	}
	return &Controller{
		ai:       opts.AI,
		files:    opts.Files,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		history:  hist,
		log:      opts.Logger,
		validate: validator.New(),
		descMemo: cache.New(descMemoTTL, time.Hour),
		runCtx:   context.Background(),
		session:  newSession(),
		assets:   NewAssetStore(),
		editing:  map[string]struct{}{},
	}
}

func newSession() *domain.Session {
	return &domain.Session{
		ID:        uuid.NewString(),
		Settings:  domain.DefaultSettings(),
		State:     domain.RunIdle,
		CreatedAt: time.Now().UTC(),
	}
}

// History exposes the history log; it outlives any single session.
func (c *Controller) History() *history.Store { return c.history }

// StartOver abandons everything in flight, releases the session's assets and
// begins a fresh session. The history log is untouched.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.assets.Release()
	c.session = newSession()
	c.running = false
	c.editing = map[string]struct{}{}
	c.log.Info().Uint64("epoch", c.epoch).Msg("studio: session reset")
}

// UploadSource replaces the source image wholesale, clears derived state and
// launches the background-removal and description derivations concurrently.
func (c *Controller) UploadSource(data []byte, mime, filename string) (*domain.Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("studio: empty upload")
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("studio: unsupported source type %q", mime)
	}
	asset, err := c.storeBytes(domain.AssetKindImage, data, mime, "uploads")
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.running = false
	c.assets.SetSource(asset)
	c.session.Results = nil
	c.session.SelectionID = ""
	c.session.State = domain.RunIdle
	c.session.RunErr = ""
	c.session.Settings.Description = ""
	c.session.Prompt.Auto = Synthesize(c.session.Settings)
	c.assets.BeginDerivation(domain.DerivationBackgroundRemoved)
	c.assets.BeginDerivation(domain.DerivationDescription)
	c.mu.Unlock()

	go c.deriveBackgroundRemoved(epoch, asset)
	go c.deriveDescription(epoch, asset)
	return asset, nil
}

// UploadReference stores the consistency-mode reference image.
func (c *Controller) UploadReference(data []byte, mime, filename string) (*domain.Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("studio: empty upload")
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("studio: unsupported reference type %q", mime)
	}
	asset, err := c.storeBytes(domain.AssetKindImage, data, mime, "references")
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.assets.SetReference(asset)
	c.mu.Unlock()
	return asset, nil
}

func (c *Controller) deriveBackgroundRemoved(epoch uint64, src *domain.Asset) {
	img, err := c.ai.RemoveBackground(c.runCtx, toAIImage(src))
	var cut *domain.Asset
	if err == nil {
		cut, err = c.storeBytes(domain.AssetKindImage, img.Data, img.MIME, "derived")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug().Msg("studio: stale background removal discarded")
		return
	}
	if err != nil {
		c.assets.FailDerivation(domain.DerivationBackgroundRemoved, &domain.RemoteError{Kind: domain.RemoteProcessing, Op: "remove background", Err: err})
		return
	}
	c.assets.CompleteDerivation(domain.DerivationBackgroundRemoved, cut, "")
}

func (c *Controller) deriveDescription(epoch uint64, src *domain.Asset) {
	text, err := c.describeCached(src)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug().Msg("studio: stale description discarded")
		return
	}
	if err != nil {
		c.assets.FailDerivation(domain.DerivationDescription, &domain.RemoteError{Kind: domain.RemoteAnalysis, Op: "describe asset", Err: err})
		return
	}
	c.assets.CompleteDerivation(domain.DerivationDescription, nil, text)
	c.session.Settings.Description = text
	c.recomputeAutoLocked()
}

// describeCached memoizes descriptions by content checksum, so re-uploading
// the same image skips the analysis call.
func (c *Controller) describeCached(src *domain.Asset) (string, error) {
	if v, ok := c.descMemo.Get(src.Checksum); ok {
		return v.(string), nil
	}
	text, err := c.ai.DescribeAsset(c.runCtx, toAIImage(src))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	c.descMemo.Set(src.Checksum, text, cache.DefaultExpiration)
	return text, nil
}

// UpdateSettings applies a partial settings update. The auto prompt is
// recomputed after every mutation; the effective prompt only changes when no
// override is in force.
func (c *Controller) UpdateSettings(patch domain.SettingsPatch) (domain.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := patch.Apply(c.session.Settings)
	if err := next.Validate(c.validate); err != nil {
		return c.session.Settings, err
	}
	c.session.Settings = next
	c.recomputeAutoLocked()
	return c.session.Settings, nil
}

// SetPromptOverride takes manual control of the prompt.
func (c *Controller) SetPromptOverride(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := strings.TrimSpace(text)
	c.session.Prompt.Override = &t
}

// ClearPromptOverride returns the prompt to the auto-synthesized value for
// the settings currently in effect.
func (c *Controller) ClearPromptOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Prompt.Override = nil
	c.recomputeAutoLocked()
}

// ApplyTemplate expands a scene template and applies it as an override. A
// template counts as a manual edit, so it beats a prior hand-edited prompt.
func (c *Controller) ApplyTemplate(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := RenderTemplate(id, c.session.Settings.Description)
	if !ok {
		return "", domain.ErrNotFound
	}
	c.session.Prompt.Override = &text
	return text, nil
}

func (c *Controller) recomputeAutoLocked() {
	c.session.Prompt.Auto = Synthesize(c.session.Settings)
}

// Select picks the result the edit pipeline acts on.
func (c *Controller) Select(resultID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.ResultByID(resultID) == nil {
		return domain.ErrNotFound
	}
	c.session.SelectionID = resultID
	return nil
}

// CycleSelection moves the selection by delta, wrapping around. It only
// applies when more than one result exists, mirroring the keyboard
// accelerators.
func (c *Controller) CycleSelection(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.session.Results)
	if n < 2 {
		return
	}
	idx := c.session.SelectionIndex()
	if idx < 0 {
		idx = 0
	} else {
		idx = ((idx+delta)%n + n) % n
	}
	c.session.SelectionID = c.session.Results[idx].ID
}

// Restore clones a past history entry back into the live session. The entry
// itself stays in the log untouched; later edits to the live session only
// reach history through the next successful run.
func (c *Controller) Restore(entryID string) error {
	entry, err := c.history.Restore(entryID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.running = false
	c.editing = map[string]struct{}{}
	c.session.Settings = entry.SettingsSnapshot
	c.session.Results = entry.ResultsSnapshot
	c.session.State = domain.RunIdle
	c.session.RunErr = ""
	c.session.Prompt.Auto = Synthesize(c.session.Settings)
	if entry.Prompt != c.session.Prompt.Auto {
		prompt := entry.Prompt
		c.session.Prompt.Override = &prompt
	} else {
		c.session.Prompt.Override = nil
	}
	c.session.SelectionID = ""
	if len(c.session.Results) > 0 {
		c.session.SelectionID = c.session.Results[0].ID
	}
	return nil
}

// AdCopy is the structured marketing-copy payload.
type AdCopy struct {
	Headline string   `json:"headline"`
	Body     string   `json:"body"`
	CTA      string   `json:"cta"`
	Hashtags []string `json:"hashtags"`
}

var adCopySchema = map[string]any{
	"headline": "string",
	"body":     "string",
	"cta":      "string",
	"hashtags": []string{"string"},
}

// GenerateAdCopy requests marketing copy for the current subject. It is an
// independent one-off chain: it does not touch the run or edit busy-scopes.
func (c *Controller) GenerateAdCopy(ctx context.Context) (*AdCopy, error) {
	c.mu.Lock()
	subject := strings.TrimSpace(c.session.Settings.Description)
	if subject == "" {
		subject = c.session.Prompt.Effective()
	}
	c.mu.Unlock()
	if subject == "" {
		return nil, &domain.PreconditionError{Missing: "subject description"}
	}

	prompt := "Write concise marketing ad copy for: " + subject +
		". Respond with JSON containing headline, body, cta and hashtags."
	raw, err := c.ai.GenerateText(ctx, prompt, adCopySchema)
	if err != nil {
		return nil, &domain.RemoteError{Kind: domain.RemoteGeneration, Op: "ad copy", Err: err}
	}
	var out AdCopy
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &domain.ParseError{Op: "ad copy", Err: err}
	}
	return &out, nil
}

// SuggestPrompts asks for alternative prompt phrasings for the current
// subject. Like ad copy it is a one-off chain outside the run and edit
// busy-scopes.
func (c *Controller) SuggestPrompts(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	subject := strings.TrimSpace(c.session.Settings.Description)
	mode := c.session.Settings.Mode
	c.mu.Unlock()
	if subject == "" {
		return nil, &domain.PreconditionError{Missing: "subject description"}
	}

	prompt := fmt.Sprintf(
		"Propose three alternative %s photography prompts for: %s. Respond with JSON containing a suggestions array.",
		mode, subject)
	raw, err := c.ai.GenerateText(ctx, prompt, map[string]any{"suggestions": []string{"string"}})
	if err != nil {
		return nil, &domain.RemoteError{Kind: domain.RemoteGeneration, Op: "prompt suggestions", Err: err}
	}
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &domain.ParseError{Op: "prompt suggestions", Err: err}
	}
	return out.Suggestions, nil
}

// storeBytes persists raw bytes under the local file store and wraps them in
// a domain asset addressable by URL.
func (c *Controller) storeBytes(kind domain.AssetKind, data []byte, mime, prefix string) (*domain.Asset, error) {
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), extForMIME(mime))
	stored, err := c.files.Write(c.runCtx, key, data)
	if err != nil {
		return nil, fmt.Errorf("studio: persist asset: %w", err)
	}
	return newAsset(kind, data, mime, stored, c.baseURL+"/"+stored), nil
}

func toAIImage(a *domain.Asset) ai.Image {
	return ai.Image{MIME: a.MIME, Data: a.Data, Width: a.Width, Height: a.Height}
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
