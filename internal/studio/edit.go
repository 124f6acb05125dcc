package studio

import (
	"context"
	"fmt"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

// Edit operations act on exactly one result: the selection at the time the
// operation starts. The write-back is keyed by the result's ID, so switching
// selection or deleting the result mid-flight never corrupts another slot;
// a completion whose target is gone is discarded.

// Inpaint regenerates the masked region of the selected result.
func (c *Controller) Inpaint(ctx context.Context, mask []byte, prompt string) (*domain.Result, error) {
	target, img, epoch, err := c.beginEdit()
	if err != nil {
		return nil, err
	}
	out, callErr := c.ai.EditImage(ctx, ai.EditParams{Image: img, Mask: mask, Prompt: inpaintInstruction(prompt)})
	return c.finishEdit(epoch, target, "inpaint", out, callErr)
}

// RemoveObject erases the masked object and reconstructs the background.
func (c *Controller) RemoveObject(ctx context.Context, mask []byte) (*domain.Result, error) {
	target, img, epoch, err := c.beginEdit()
	if err != nil {
		return nil, err
	}
	out, callErr := c.ai.EditImage(ctx, ai.EditParams{Image: img, Mask: mask, Prompt: removeObjectInstruction})
	return c.finishEdit(epoch, target, "remove object", out, callErr)
}

// Enhance upsamples and cleans up the selected result.
func (c *Controller) Enhance(ctx context.Context, prompt string) (*domain.Result, error) {
	target, img, epoch, err := c.beginEdit()
	if err != nil {
		return nil, err
	}
	out, callErr := c.ai.EnhanceImage(ctx, img, enhanceInstruction(prompt))
	return c.finishEdit(epoch, target, "enhance", out, callErr)
}

// Expand extends the canvas toward the given direction, outpainting the new
// area.
func (c *Controller) Expand(ctx context.Context, direction string) (*domain.Result, error) {
	instruction, err := expandInstruction(direction)
	if err != nil {
		return nil, err
	}
	target, img, epoch, beginErr := c.beginEdit()
	if beginErr != nil {
		return nil, beginErr
	}
	out, callErr := c.ai.EditImage(ctx, ai.EditParams{Image: img, Prompt: instruction})
	return c.finishEdit(epoch, target, "expand", out, callErr)
}

// ExtractPalette returns the dominant colors of the selected result and
// attaches them to the head history entry. The palette is computed at most
// once per entry; a repeat request returns the stored value without a remote
// call.
func (c *Controller) ExtractPalette(ctx context.Context) ([]string, error) {
	if colors, ok := c.history.HeadPalette(); ok {
		return colors, nil
	}
	target, img, epoch, err := c.beginEdit()
	if err != nil {
		return nil, err
	}
	colors, callErr := c.ai.ExtractPalette(ctx, img)

	c.mu.Lock()
	delete(c.editing, target)
	stale := epoch != c.epoch
	c.mu.Unlock()

	if callErr != nil {
		return nil, &domain.RemoteError{Kind: domain.RemoteProcessing, Op: "extract palette", Err: callErr}
	}
	if stale {
		c.log.Debug().Msg("studio: stale palette discarded")
		return colors, nil
	}
	if attached := c.history.AttachPalette(colors); attached != nil {
		return attached, nil
	}
	return colors, nil
}

// beginEdit resolves the selected result and claims its busy-scope. Only one
// edit per result may be in flight; other results and the batch run are
// unaffected.
func (c *Controller) beginEdit() (resultID string, img ai.Image, epoch uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.session.SelectionID
	if id == "" {
		return "", ai.Image{}, 0, domain.ErrNoSelection
	}
	r := c.session.ResultByID(id)
	if r == nil {
		return "", ai.Image{}, 0, domain.ErrNoSelection
	}
	if r.Status != domain.ResultReady || r.Content == nil {
		return "", ai.Image{}, 0, domain.ErrResultNotReady
	}
	if _, busy := c.editing[id]; busy {
		return "", ai.Image{}, 0, domain.ErrResultBusy
	}
	c.editing[id] = struct{}{}
	return id, toAIImage(r.Content), c.epoch, nil
}

// finishEdit writes the edited content back into the slot with the captured
// ID, in both the live results and the head history entry. Stale completions
// (session reset, slot gone) release the busy-scope and are dropped.
func (c *Controller) finishEdit(epoch uint64, resultID, op string, out *ai.Image, callErr error) (*domain.Result, error) {
	if callErr != nil {
		c.mu.Lock()
		delete(c.editing, resultID)
		c.mu.Unlock()
		return nil, &domain.RemoteError{Kind: domain.RemoteEdit, Op: op, Err: callErr}
	}

	content, err := c.storeBytes(domain.AssetKindImage, out.Data, out.MIME, "edits")
	if err != nil {
		c.mu.Lock()
		delete(c.editing, resultID)
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.editing, resultID)
	if epoch != c.epoch {
		c.log.Debug().Str("result_id", resultID).Str("op", op).Msg("studio: stale edit discarded")
		return nil, nil
	}
	r := c.session.ResultByID(resultID)
	if r == nil {
		c.log.Debug().Str("result_id", resultID).Str("op", op).Msg("studio: edit target removed, discarded")
		return nil, nil
	}
	r.Content = content
	c.history.ReplaceHeadResult(resultID, content)
	return r.Clone(), nil
}

// DeleteResult removes one result slot from the live session. An edit in
// flight for it will find its target gone and discard itself.
func (c *Controller) DeleteResult(resultID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.session.Results {
		if r.ID == resultID {
			c.session.Results = append(c.session.Results[:i], c.session.Results[i+1:]...)
			if c.session.SelectionID == resultID {
				c.session.SelectionID = ""
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

const removeObjectInstruction = "Remove the masked object completely and reconstruct the background behind it seamlessly."

func inpaintInstruction(prompt string) string {
	if prompt == "" {
		return "Regenerate the masked region so it blends naturally with the rest of the image."
	}
	return "Replace the masked region with: " + prompt + ". Blend naturally with the rest of the image."
}

func enhanceInstruction(prompt string) string {
	base := "Enhance the image: increase sharpness and detail, fix artifacts, keep the subject unchanged."
	if prompt == "" {
		return base
	}
	return base + " " + prompt
}

func expandInstruction(direction string) (string, error) {
	switch direction {
	case "up", "down", "left", "right":
		return fmt.Sprintf("Extend the image canvas toward the %s, continuing the scene naturally without altering the existing content.", direction), nil
	default:
		return "", fmt.Errorf("studio: unsupported expand direction %q", direction)
	}
}
