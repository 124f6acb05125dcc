package studio

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

func TestGenerateRequiresSource(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	c.SetPromptOverride("a mug on marble")

	_, err := c.Generate()
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("got %v, want PreconditionError", err)
	}
	if got := c.View().State; got != string(domain.RunIdle) {
		t.Fatalf("state after rejected run = %q, want idle", got)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	svc := &fakeAI{
		describeFn: func(ctx context.Context, img ai.Image) (string, error) { return "", nil },
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	_, err := c.Generate()
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) || pre.Missing != "prompt" {
		t.Fatalf("got %v, want PreconditionError{prompt}", err)
	}
}

func TestGenerateBatchSeedsAndHistory(t *testing.T) {
	gates := [3]chan struct{}{make(chan struct{}), make(chan struct{}), make(chan struct{})}
	var mu sync.Mutex
	var seeds []int64
	svc := &fakeAI{
		generateFn: func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
			if p.Seed == nil {
				t.Error("request dispatched without a seed")
				return pngImage("out"), nil
			}
			mu.Lock()
			seeds = append(seeds, *p.Seed)
			mu.Unlock()
			<-gates[*p.Seed-100]
			return pngImage("out"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	n, seed := 3, "100"
	if _, err := c.UpdateSettings(domain.SettingsPatch{NumberOfImages: &n, Seed: &seed}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(handle.ResultIDs) != 3 {
		t.Fatalf("dispatched %d slots, want 3", len(handle.ResultIDs))
	}

	// Resolve the batch back to front; slot identity and order are fixed at
	// dispatch, whatever order the requests settle in.
	for i := 2; i >= 0; i-- {
		close(gates[i])
		slot := i
		waitFor(t, func() bool {
			return c.View().Results[slot].Status == string(domain.ResultReady)
		})
	}
	<-handle.Done

	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	want := []int64{100, 101, 102}
	if len(seeds) != len(want) {
		t.Fatalf("seeds = %v, want %v", seeds, want)
	}
	for i, s := range want {
		if seeds[i] != s {
			t.Fatalf("seeds = %v, want %v", seeds, want)
		}
	}

	v := c.View()
	if v.State != string(domain.RunSucceeded) {
		t.Fatalf("state = %q, want succeeded", v.State)
	}
	if v.SelectionID != handle.ResultIDs[0] {
		t.Fatalf("selection = %q, want first result", v.SelectionID)
	}
	for i, rv := range v.Results {
		if rv.ID != handle.ResultIDs[i] {
			t.Fatalf("slot %d has ID %q, want dispatch order preserved", i, rv.ID)
		}
		if rv.Status != string(domain.ResultReady) {
			t.Fatalf("slot %d status = %q, want ready", i, rv.Status)
		}
	}

	entries := c.History().List()
	if len(entries) != 1 {
		t.Fatalf("history len = %d, want 1", len(entries))
	}
	if len(entries[0].ResultsSnapshot) != 3 {
		t.Fatalf("history snapshot has %d results, want 3", len(entries[0].ResultsSnapshot))
	}
	if entries[0].Title == "" || entries[0].Prompt == "" {
		t.Fatalf("history entry missing title or prompt: %+v", entries[0])
	}
}

func TestGenerateSecondRunRejectedWhileRunning(t *testing.T) {
	block := make(chan struct{})
	svc := &fakeAI{
		generateFn: func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
			<-block
			return pngImage("out"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := c.Generate(); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("second run: got %v, want ErrSessionBusy", err)
	}
	close(block)
	<-handle.Done

	// Terminal states accept a fresh run.
	second, err := c.Generate()
	if err != nil {
		t.Fatalf("run after success: %v", err)
	}
	<-second.Done
}

func TestGeneratePartialFailurePreservesSiblings(t *testing.T) {
	svc := &fakeAI{
		generateFn: func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
			if p.Seed != nil && *p.Seed == 101 {
				return nil, errors.New("provider exploded")
			}
			return pngImage("out"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	n, seed := 3, "100"
	if _, err := c.UpdateSettings(domain.SettingsPatch{NumberOfImages: &n, Seed: &seed}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done

	v := c.View()
	if v.State != string(domain.RunFailed) {
		t.Fatalf("state = %q, want failed", v.State)
	}
	if v.RunError == "" {
		t.Fatalf("run error should carry the first failure")
	}
	ready, failed := 0, 0
	for _, rv := range v.Results {
		switch rv.Status {
		case string(domain.ResultReady):
			ready++
		case string(domain.ResultFailed):
			failed++
		}
	}
	if ready != 2 || failed != 1 {
		t.Fatalf("ready=%d failed=%d, want 2/1", ready, failed)
	}
	if c.History().Len() != 0 {
		t.Fatalf("failed run must not commit to history")
	}
}

func TestStartOverDiscardsInFlightRun(t *testing.T) {
	block := make(chan struct{})
	svc := &fakeAI{
		generateFn: func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
			<-block
			return pngImage("out"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c.StartOver()
	close(block)
	<-handle.Done

	v := c.View()
	if len(v.Results) != 0 || v.State != string(domain.RunIdle) {
		t.Fatalf("stale completions leaked into the fresh session: %+v", v)
	}
	if c.History().Len() != 0 {
		t.Fatalf("abandoned run must not commit to history")
	}
}

func TestRunWithAllSlotsDeletedSkipsHistory(t *testing.T) {
	entered := make(chan struct{})
	block := make(chan struct{})
	svc := &fakeAI{
		generateFn: func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
			close(entered)
			<-block
			return pngImage("out"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-entered
	if err := c.DeleteResult(handle.ResultIDs[0]); err != nil {
		t.Fatalf("delete pending slot: %v", err)
	}
	close(block)
	<-handle.Done

	v := c.View()
	if v.State != string(domain.RunSucceeded) || len(v.Results) != 0 {
		t.Fatalf("state=%q results=%d, want succeeded with no slots", v.State, len(v.Results))
	}
	if c.History().Len() != 0 {
		t.Fatalf("run with no surviving slots must not commit to history")
	}
}

func TestGenerateVideoModeSingleResult(t *testing.T) {
	svc := &fakeAI{}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	mode := "video"
	n := 4
	if _, err := c.UpdateSettings(domain.SettingsPatch{Mode: &mode, NumberOfImages: &n}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(handle.ResultIDs) != 1 {
		t.Fatalf("video run dispatched %d slots, want 1", len(handle.ResultIDs))
	}
	<-handle.Done

	v := c.View()
	if len(v.Results) != 1 || v.Results[0].Kind != string(domain.AssetKindVideo) {
		t.Fatalf("expected one video result, got %+v", v.Results)
	}
}

func TestGenerateCharacterModeNeedsReference(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")

	mode := "character"
	if _, err := c.UpdateSettings(domain.SettingsPatch{Mode: &mode}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	_, err := c.Generate()
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("got %v, want PreconditionError for missing reference", err)
	}

	if _, err := c.UploadReference([]byte("ref"), "image/png", "ref.png"); err != nil {
		t.Fatalf("upload reference: %v", err)
	}
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate with reference: %v", err)
	}
	<-handle.Done
}
