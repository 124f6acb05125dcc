package studio

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

// runToSuccess uploads a source and completes one single-image run.
func runToSuccess(t *testing.T, c *Controller) string {
	t.Helper()
	uploadAndSettle(t, c, "src")
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done
	if got := c.View().State; got != string(domain.RunSucceeded) {
		t.Fatalf("state = %q, want succeeded", got)
	}
	return handle.ResultIDs[0]
}

func TestEditRequiresSelection(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	if _, err := c.Enhance(context.Background(), ""); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("got %v, want ErrNoSelection", err)
	}
}

func TestEnhanceReplacesContentAndHeadSnapshot(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	resultID := runToSuccess(t, c)

	before := c.View().Results[0].URL
	res, err := c.Enhance(context.Background(), "sharper")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if res == nil || res.ID != resultID {
		t.Fatalf("enhance returned %+v, want result %s", res, resultID)
	}
	after := c.View().Results[0].URL
	if after == before {
		t.Fatalf("result content was not replaced")
	}

	// The head history entry tracks the live edit.
	head := c.History().List()[0]
	if head.ResultsSnapshot[0].Content.URL != after {
		t.Fatalf("head snapshot URL = %q, want %q", head.ResultsSnapshot[0].Content.URL, after)
	}
}

func TestEditFailureSurfacesRemoteError(t *testing.T) {
	svc := &fakeAI{
		enhanceFn: func(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
			return nil, errors.New("overloaded")
		},
	}
	c := newTestController(t, svc)
	runToSuccess(t, c)

	_, err := c.Enhance(context.Background(), "")
	var remote *domain.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("got %v, want RemoteError", err)
	}
	if remote.Kind != domain.RemoteEdit {
		t.Fatalf("remote kind = %q, want edit", remote.Kind)
	}

	// The busy-scope is released on failure, so a retry is allowed.
	svc.enhanceFn = nil
	if _, err := c.Enhance(context.Background(), ""); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestStaleEditDiscarded(t *testing.T) {
	entered := make(chan struct{})
	block := make(chan struct{})
	svc := &fakeAI{
		enhanceFn: func(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
			close(entered)
			<-block
			return pngImage("late"), nil
		},
	}
	c := newTestController(t, svc)
	runToSuccess(t, c)

	type outcome struct {
		res *domain.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Enhance(context.Background(), "")
		done <- outcome{res, err}
	}()

	<-entered
	c.StartOver()
	close(block)

	out := <-done
	if out.err != nil {
		t.Fatalf("stale edit returned error: %v", out.err)
	}
	if out.res != nil {
		t.Fatalf("stale edit returned a result: %+v", out.res)
	}
	if got := len(c.View().Results); got != 0 {
		t.Fatalf("stale edit leaked into the fresh session")
	}
}

func TestEditWritebackSkipsDeletedTarget(t *testing.T) {
	entered := make(chan struct{})
	block := make(chan struct{})
	svc := &fakeAI{
		enhanceFn: func(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
			close(entered)
			<-block
			return pngImage("late"), nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	n := 2
	if _, err := c.UpdateSettings(domain.SettingsPatch{NumberOfImages: &n}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done
	first, second := handle.ResultIDs[0], handle.ResultIDs[1]

	siblingBefore := c.View().Results[1].URL
	headBefore := c.History().List()[0].ResultsSnapshot

	type outcome struct {
		res *domain.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, editErr := c.Enhance(context.Background(), "")
		done <- outcome{res, editErr}
	}()

	// While the edit on the first result is in flight, move the selection to
	// its sibling and delete the target slot out from under it.
	<-entered
	if err := c.Select(second); err != nil {
		t.Fatalf("select sibling: %v", err)
	}
	if err := c.DeleteResult(first); err != nil {
		t.Fatalf("delete target: %v", err)
	}
	close(block)

	out := <-done
	if out.err != nil {
		t.Fatalf("orphaned edit returned error: %v", out.err)
	}
	if out.res != nil {
		t.Fatalf("orphaned edit returned a result: %+v", out.res)
	}

	v := c.View()
	if len(v.Results) != 1 || v.Results[0].ID != second {
		t.Fatalf("surviving slots = %+v, want only the sibling", v.Results)
	}
	if v.Results[0].URL != siblingBefore {
		t.Fatalf("sibling content changed: %q -> %q", siblingBefore, v.Results[0].URL)
	}
	headAfter := c.History().List()[0].ResultsSnapshot
	if len(headAfter) != len(headBefore) {
		t.Fatalf("head snapshot slots = %d, want %d", len(headAfter), len(headBefore))
	}
	for i := range headBefore {
		if headAfter[i].Content.URL != headBefore[i].Content.URL {
			t.Fatalf("head snapshot slot %d changed: %q -> %q", i, headBefore[i].Content.URL, headAfter[i].Content.URL)
		}
	}
}

func TestConcurrentEditOnSameResultRejected(t *testing.T) {
	entered := make(chan struct{})
	block := make(chan struct{})
	svc := &fakeAI{
		enhanceFn: func(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
			close(entered)
			<-block
			return pngImage("slow"), nil
		},
	}
	c := newTestController(t, svc)
	runToSuccess(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Enhance(context.Background(), "")
		done <- err
	}()
	<-entered

	if _, err := c.Inpaint(context.Background(), nil, "patch"); !errors.Is(err, domain.ErrResultBusy) {
		t.Fatalf("got %v, want ErrResultBusy", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first edit: %v", err)
	}
}

func TestExpandRejectsUnknownDirection(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	runToSuccess(t, c)
	if _, err := c.Expand(context.Background(), "sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
	if _, err := c.Expand(context.Background(), "left"); err != nil {
		t.Fatalf("expand left: %v", err)
	}
}

func TestExtractPaletteComputedOncePerEntry(t *testing.T) {
	svc := &fakeAI{}
	c := newTestController(t, svc)
	runToSuccess(t, c)

	first, err := c.ExtractPalette(context.Background())
	if err != nil {
		t.Fatalf("extract palette: %v", err)
	}
	second, err := c.ExtractPalette(context.Background())
	if err != nil {
		t.Fatalf("repeat extract: %v", err)
	}
	if len(first) == 0 || len(second) != len(first) {
		t.Fatalf("palette mismatch: %v vs %v", first, second)
	}
	if n := atomic.LoadInt32(&svc.paletteCalls); n != 1 {
		t.Fatalf("palette calls = %d, want 1 (second request served from history)", n)
	}
}

func TestDeleteResultClearsSelection(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	resultID := runToSuccess(t, c)

	if err := c.DeleteResult(resultID); err != nil {
		t.Fatalf("delete result: %v", err)
	}
	v := c.View()
	if len(v.Results) != 0 || v.SelectionID != "" {
		t.Fatalf("delete left residue: %+v", v)
	}
	if err := c.DeleteResult(resultID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}
