package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

// RunHandle is returned by Generate. Results carries the placeholder IDs in
// dispatch order; Done closes once every request in the batch has settled and
// the run reached a terminal state.
type RunHandle struct {
	ResultIDs []string
	Done      <-chan struct{}
}

type dispatchedRequest struct {
	id     string
	seed   *int64
	params ai.GenerateParams
}

// Generate runs one batch through the state machine: validate preconditions,
// insert pending placeholders, fan out one request per output, join, and
// commit a history entry only when every request succeeded. Exactly one run
// may be in flight; edits have their own per-result busy-scope and are not
// blocked.
func (c *Controller) Generate() (*RunHandle, error) {
	c.mu.Lock()

	if c.running {
		c.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}
	c.session.State = domain.RunValidating
	settings := c.session.Settings
	if err := settings.Validate(c.validate); err != nil {
		c.session.State = domain.RunIdle
		c.mu.Unlock()
		return nil, err
	}
	// Preconditions are evaluated now, not at the time the source was
	// uploaded: a derivation may still be pending from the upload flow.
	base, styleRef, err := c.preconditionLocked(settings.Mode)
	if err != nil {
		c.session.State = domain.RunIdle
		c.mu.Unlock()
		return nil, err
	}
	prompt := c.session.Prompt.Effective()
	if prompt == "" {
		c.session.State = domain.RunIdle
		c.mu.Unlock()
		return nil, &domain.PreconditionError{Missing: "prompt"}
	}

	kind := domain.AssetKindImage
	if settings.Mode == domain.ModeVideo {
		kind = domain.AssetKindVideo
	}
	baseSeed, hasSeed := settings.BaseSeed()
	n := settings.BatchSize()

	requests := make([]dispatchedRequest, n)
	placeholders := make([]*domain.Result, n)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		var seed *int64
		if hasSeed {
			s := baseSeed + int64(i)
			seed = &s
		}
		id := uuid.NewString()
		ids[i] = id
		requests[i] = dispatchedRequest{
			id:   id,
			seed: seed,
			params: ai.GenerateParams{
				Prompt:         prompt,
				NegativePrompt: settings.NegativePrompt,
				AspectRatio:    settings.AspectRatio,
				Seed:           seed,
				Base:           base,
				StyleRef:       styleRef,
			},
		}
		placeholders[i] = &domain.Result{
			ID:           id,
			Kind:         kind,
			Status:       domain.ResultPending,
			SourcePrompt: prompt,
			Seed:         seed,
		}
	}

	// Placeholders go in before any request resolves so slot order and
	// identity are fixed at dispatch time, whatever the completion order.
	c.session.Results = placeholders
	c.session.SelectionID = ""
	c.session.State = domain.RunRunning
	c.session.RunErr = ""
	c.running = true
	epoch := c.epoch
	mode := settings.Mode
	c.mu.Unlock()

	c.log.Info().Int("batch", n).Str("mode", string(mode)).Msg("studio: run dispatched")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(n)
	for _, req := range requests {
		go func(req dispatchedRequest) {
			defer wg.Done()
			c.runOne(epoch, mode, req)
		}(req)
	}
	go func() {
		wg.Wait()
		c.finishRun(epoch)
		close(done)
	}()

	return &RunHandle{ResultIDs: ids, Done: done}, nil
}

// preconditionLocked resolves the input images the mode requires, failing
// fast before any network call when one is missing.
func (c *Controller) preconditionLocked(mode domain.Mode) (base, styleRef *ai.Image, err error) {
	src := c.assets.Source()
	if src == nil {
		return nil, nil, &domain.PreconditionError{Missing: "source image"}
	}
	if kind, ok := mode.RequiredDerivation(); ok {
		d := c.assets.Derivation(kind)
		if d.Status != domain.DerivationReady || d.Asset == nil {
			return nil, nil, &domain.PreconditionError{Missing: string(kind) + " asset"}
		}
		img := toAIImage(d.Asset)
		return &img, nil, nil
	}
	if mode.NeedsReference() {
		ref := c.assets.Reference()
		if ref == nil {
			return nil, nil, &domain.PreconditionError{Missing: "reference image"}
		}
		img := toAIImage(src)
		refImg := toAIImage(ref)
		return &img, &refImg, nil
	}
	img := toAIImage(src)
	return &img, nil, nil
}

func (c *Controller) runOne(epoch uint64, mode domain.Mode, req dispatchedRequest) {
	var (
		content *domain.Asset
		callErr error
	)
	if mode == domain.ModeVideo {
		vid, err := c.ai.GenerateVideo(c.runCtx, req.params.Prompt, req.params.Base)
		if err != nil {
			callErr = err
		} else {
			content, callErr = c.storeBytes(domain.AssetKindVideo, vid.Data, vid.MIME, "results")
		}
	} else {
		img, err := c.ai.GenerateImage(c.runCtx, req.params)
		if err != nil {
			callErr = err
		} else {
			content, callErr = c.storeBytes(domain.AssetKindImage, img.Data, img.MIME, "results")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug().Str("result_id", req.id).Msg("studio: stale generation discarded")
		return
	}
	r := c.session.ResultByID(req.id)
	if r == nil {
		c.log.Debug().Str("result_id", req.id).Msg("studio: generation for removed slot discarded")
		return
	}
	if callErr != nil {
		r.Status = domain.ResultFailed
		r.Err = (&domain.RemoteError{Kind: domain.RemoteGeneration, Op: "generate", Err: callErr}).Error()
		return
	}
	r.Status = domain.ResultReady
	r.Content = content
}

// finishRun joins the batch: succeeded only when every request settled
// without failure, failed otherwise with succeeded siblings preserved.
// History is committed only on full success.
func (c *Controller) finishRun(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.running = false

	failed := 0
	firstErr := ""
	for _, r := range c.session.Results {
		if r.Status == domain.ResultFailed {
			failed++
			if firstErr == "" {
				firstErr = r.Err
			}
		}
	}
	if failed > 0 {
		c.session.State = domain.RunFailed
		c.session.RunErr = firstErr
		c.log.Warn().Int("failed", failed).Msg("studio: run failed, partial results preserved")
		return
	}

	c.session.State = domain.RunSucceeded
	if len(c.session.Results) == 0 {
		// Every slot was deleted while the run was in flight; nothing to show
		// and nothing worth remembering.
		c.log.Debug().Msg("studio: run settled with no surviving slots, history skipped")
		return
	}
	if c.session.SelectionID == "" {
		c.session.SelectionID = c.session.Results[0].ID
	}

	prompt := c.session.Results[0].SourcePrompt
	entry := &domain.HistoryEntry{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		Title:            DeriveTitle(prompt),
		Prompt:           prompt,
		SettingsSnapshot: c.session.Settings.Clone(),
		ResultsSnapshot:  domain.CloneResults(c.session.Results),
	}
	c.history.Append(entry)
	c.log.Info().Str("entry_id", entry.ID).Int("results", len(entry.ResultsSnapshot)).Msg("studio: run committed to history")
}
