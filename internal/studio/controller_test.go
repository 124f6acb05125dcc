package studio

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/history"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/storage"
)

// fakeAI implements ai.Service with overridable hooks and call counters.
type fakeAI struct {
	describeFn func(ctx context.Context, img ai.Image) (string, error)
	removeBGFn func(ctx context.Context, img ai.Image) (*ai.Image, error)
	generateFn func(ctx context.Context, p ai.GenerateParams) (*ai.Image, error)
	editFn     func(ctx context.Context, p ai.EditParams) (*ai.Image, error)
	enhanceFn  func(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error)
	paletteFn  func(ctx context.Context, img ai.Image) ([]string, error)
	textFn     func(ctx context.Context, prompt string, schema map[string]any) (string, error)
	videoFn    func(ctx context.Context, prompt string, base *ai.Image) (*ai.Video, error)

	describeCalls int32
	generateCalls int32
	paletteCalls  int32
}

func pngImage(payload string) *ai.Image {
	return &ai.Image{MIME: "image/png", Data: []byte(payload), Width: 4, Height: 4}
}

func (f *fakeAI) DescribeAsset(ctx context.Context, img ai.Image) (string, error) {
	atomic.AddInt32(&f.describeCalls, 1)
	if f.describeFn != nil {
		return f.describeFn(ctx, img)
	}
	return "a ceramic mug", nil
}

func (f *fakeAI) RemoveBackground(ctx context.Context, img ai.Image) (*ai.Image, error) {
	if f.removeBGFn != nil {
		return f.removeBGFn(ctx, img)
	}
	return pngImage("cutout"), nil
}

func (f *fakeAI) GenerateImage(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
	atomic.AddInt32(&f.generateCalls, 1)
	if f.generateFn != nil {
		return f.generateFn(ctx, p)
	}
	return pngImage("generated"), nil
}

func (f *fakeAI) EditImage(ctx context.Context, p ai.EditParams) (*ai.Image, error) {
	if f.editFn != nil {
		return f.editFn(ctx, p)
	}
	return pngImage("edited"), nil
}

func (f *fakeAI) EnhanceImage(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
	if f.enhanceFn != nil {
		return f.enhanceFn(ctx, img, prompt)
	}
	return pngImage("enhanced"), nil
}

func (f *fakeAI) ExtractPalette(ctx context.Context, img ai.Image) ([]string, error) {
	atomic.AddInt32(&f.paletteCalls, 1)
	if f.paletteFn != nil {
		return f.paletteFn(ctx, img)
	}
	return []string{"#112233", "#445566"}, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if f.textFn != nil {
		return f.textFn(ctx, prompt, schema)
	}
	return `{"headline":"h","body":"b","cta":"c","hashtags":["#x"]}`, nil
}

func (f *fakeAI) GenerateVideo(ctx context.Context, prompt string, base *ai.Image) (*ai.Video, error) {
	if f.videoFn != nil {
		return f.videoFn(ctx, prompt, base)
	}
	return &ai.Video{MIME: "video/mp4", Data: []byte("clip"), Seconds: 4}, nil
}

func newTestController(t *testing.T, svc ai.Service) *Controller {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return NewController(Options{
		AI:      svc,
		Files:   files,
		BaseURL: "http://localhost/static",
		History: history.NewStore(),
		Logger:  zerolog.Nop(),
	})
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

// uploadAndSettle uploads a source image and waits for both derivations.
func uploadAndSettle(t *testing.T, c *Controller, payload string) {
	t.Helper()
	if _, err := c.UploadSource([]byte(payload), "image/png", "src.png"); err != nil {
		t.Fatalf("upload source: %v", err)
	}
	waitFor(t, func() bool {
		v := c.View()
		for _, d := range v.Derivations {
			if d.Status != string(domain.DerivationReady) {
				return false
			}
		}
		return true
	})
}

func TestUploadSourceRunsDerivations(t *testing.T) {
	svc := &fakeAI{}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src-bytes")

	v := c.View()
	if v.Source == nil {
		t.Fatalf("expected source asset in view")
	}
	if v.Settings.Description != "a ceramic mug" {
		t.Fatalf("description = %q, want %q", v.Settings.Description, "a ceramic mug")
	}
	if v.Prompt.Auto == "" {
		t.Fatalf("auto prompt should be synthesized after description arrives")
	}
	if !v.CanGenerate {
		t.Fatalf("expected generation to be available")
	}
}

func TestUploadSourceRejectsNonImage(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	if _, err := c.UploadSource([]byte("x"), "application/pdf", "doc.pdf"); err == nil {
		t.Fatalf("expected error for non-image source")
	}
	if _, err := c.UploadSource(nil, "image/png", "empty.png"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestDescriptionMemoizedByChecksum(t *testing.T) {
	svc := &fakeAI{}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "same-bytes")
	uploadAndSettle(t, c, "same-bytes")

	if n := atomic.LoadInt32(&svc.describeCalls); n != 1 {
		t.Fatalf("describe calls = %d, want 1 (second upload should hit the memo)", n)
	}
}

func TestPromptOverrideAndClear(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")

	auto := c.View().Prompt.Auto
	c.SetPromptOverride("  hand written prompt  ")
	v := c.View()
	if v.Prompt.Effective != "hand written prompt" {
		t.Fatalf("effective = %q, want trimmed override", v.Prompt.Effective)
	}
	if !v.Prompt.Dirty {
		t.Fatalf("prompt should be dirty under override")
	}

	// Settings changes keep recomputing auto but never touch the override.
	style := "minimalist"
	if _, err := c.UpdateSettings(domain.SettingsPatch{Style: &style}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := c.View().Prompt.Effective; got != "hand written prompt" {
		t.Fatalf("override lost after settings change: %q", got)
	}

	c.ClearPromptOverride()
	v = c.View()
	if v.Prompt.Dirty {
		t.Fatalf("prompt should not be dirty after clear")
	}
	if !strings.Contains(v.Prompt.Effective, "minimalist") {
		t.Fatalf("cleared prompt should reflect current settings, got %q", v.Prompt.Effective)
	}
	if v.Prompt.Effective == auto {
		t.Fatalf("auto prompt should have been recomputed for the new style")
	}
}

func TestApplyTemplateSetsOverride(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")

	text, err := c.ApplyTemplate("beach-sunset")
	if err != nil {
		t.Fatalf("apply template: %v", err)
	}
	if !strings.Contains(text, "a ceramic mug") {
		t.Fatalf("template should expand the subject, got %q", text)
	}
	v := c.View()
	if !v.Prompt.Dirty || v.Prompt.Effective != text {
		t.Fatalf("template should take effect as an override")
	}

	if _, err := c.ApplyTemplate("no-such-template"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown template: got %v, want ErrNotFound", err)
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	bad := "21:9"
	if _, err := c.UpdateSettings(domain.SettingsPatch{AspectRatio: &bad}); err == nil {
		t.Fatalf("expected validation error for aspect ratio %q", bad)
	}
	if got := c.View().Settings.AspectRatio; got != domain.DefaultAspectRatio {
		t.Fatalf("settings mutated by rejected patch: %q", got)
	}
}

func TestCycleSelectionWraps(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")
	n := 3
	if _, err := c.UpdateSettings(domain.SettingsPatch{NumberOfImages: &n}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done

	first := handle.ResultIDs[0]
	if got := c.View().SelectionID; got != first {
		t.Fatalf("selection = %q, want first result %q", got, first)
	}
	c.CycleSelection(-1)
	if got := c.View().SelectionID; got != handle.ResultIDs[2] {
		t.Fatalf("cycle -1 should wrap to last result, got %q", got)
	}
	c.CycleSelection(1)
	if got := c.View().SelectionID; got != first {
		t.Fatalf("cycle +1 should wrap back to first, got %q", got)
	}
}

func TestGenerateAdCopy(t *testing.T) {
	svc := &fakeAI{}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	copyOut, err := c.GenerateAdCopy(context.Background())
	if err != nil {
		t.Fatalf("ad copy: %v", err)
	}
	if copyOut.Headline != "h" || len(copyOut.Hashtags) != 1 {
		t.Fatalf("unexpected ad copy payload: %+v", copyOut)
	}
}

func TestGenerateAdCopyParseFailure(t *testing.T) {
	svc := &fakeAI{
		textFn: func(ctx context.Context, prompt string, schema map[string]any) (string, error) {
			return "not json", nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	_, err := c.GenerateAdCopy(context.Background())
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
}

func TestSuggestPrompts(t *testing.T) {
	svc := &fakeAI{
		textFn: func(ctx context.Context, prompt string, schema map[string]any) (string, error) {
			if _, ok := schema["suggestions"]; !ok {
				t.Errorf("schema missing suggestions key: %v", schema)
			}
			return `{"suggestions":["a","b","c"]}`, nil
		},
	}
	c := newTestController(t, svc)
	uploadAndSettle(t, c, "src")

	got, err := c.SuggestPrompts(context.Background())
	if err != nil {
		t.Fatalf("suggest prompts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("suggestions = %v, want 3", got)
	}
}

func TestSuggestPromptsNeedsSubject(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	_, err := c.SuggestPrompts(context.Background())
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
}

func TestGenerateAdCopyNeedsSubject(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	_, err := c.GenerateAdCopy(context.Background())
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("got %v, want PreconditionError", err)
	}
}

func TestRestoreBringsEntryBack(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done

	entries := c.History().List()
	if len(entries) != 1 {
		t.Fatalf("history len = %d, want 1", len(entries))
	}
	entryID := entries[0].ID
	wantPrompt := entries[0].Prompt

	c.StartOver()
	if len(c.View().Results) != 0 {
		t.Fatalf("start over should clear results")
	}

	if err := c.Restore(entryID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	v := c.View()
	if len(v.Results) != 1 {
		t.Fatalf("restored results = %d, want 1", len(v.Results))
	}
	if v.SelectionID != v.Results[0].ID {
		t.Fatalf("restore should select the first result")
	}
	if v.Prompt.Effective != wantPrompt {
		t.Fatalf("restored prompt = %q, want %q", v.Prompt.Effective, wantPrompt)
	}
	if c.History().Len() != 1 {
		t.Fatalf("restore must not consume the history entry")
	}
}

func TestStartOverKeepsHistory(t *testing.T) {
	c := newTestController(t, &fakeAI{})
	uploadAndSettle(t, c, "src")
	handle, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	<-handle.Done

	c.StartOver()
	v := c.View()
	if v.Source != nil || len(v.Results) != 0 || v.State != string(domain.RunIdle) {
		t.Fatalf("start over should reset the live session, got %+v", v)
	}
	if c.History().Len() != 1 {
		t.Fatalf("history must survive start over")
	}
}
