package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/taskquest/internal/app/integrations/nlclassify"
	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CategoryCount is one row of the category tally.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// errNoClassifications is returned when every classification call failed.
var errNoClassifications = errors.New("no task could be classified")

// classify labels every text with its top-level category using at most
// h.Concurrency calls at once. Individual failures are logged and skipped;
// an unconfigured classifier aborts the whole run.
func (h *Handler) classify(ctx context.Context, texts []string) ([]CategoryCount, error) {
	labels := make([]string, len(texts))
	failed := make([]bool, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	limit := h.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			cats, err := h.Classifier.Classify(gctx, text)
			if errors.Is(err, upstream.ErrNotConfigured) {
				return err
			}
			if err != nil {
				h.Log.Debug("classification failed; skipping task text", zap.Int("index", i), zap.Error(err))
				failed[i] = true
				return nil
			}
			if len(cats) > 0 {
				labels[i] = nlclassify.TopLevel(cats[0].Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nFailed := 0
	for _, f := range failed {
		if f {
			nFailed++
		}
	}
	if nFailed == len(texts) {
		return nil, errNoClassifications
	}
	if nFailed > 0 {
		h.Log.Warn("some task texts could not be classified",
			zap.Int("failed", nFailed), zap.Int("total", len(texts)))
	}
	return tally(labels), nil
}

// tally counts non-empty labels, most frequent first, ties by name.
func tally(labels []string) []CategoryCount {
	counts := map[string]int{}
	for _, l := range labels {
		if l != "" {
			counts[l]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// buildPrompt asks for a few new tasks in the user's most common categories.
func buildPrompt(cats []CategoryCount, recent []string) string {
	var b strings.Builder
	b.WriteString("You help people plan their to-do lists. ")
	b.WriteString("Based on the categories of tasks this person usually creates, suggest five new, concrete tasks they might want to add. ")
	b.WriteString("Reply with a short numbered list and nothing else.\n\n")
	if len(cats) > 0 {
		b.WriteString("Task categories (count):\n")
		for _, c := range cats {
			fmt.Fprintf(&b, "- %s (%d)\n", c.Name, c.Count)
		}
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent tasks:\n")
		for i, t := range recent {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return b.String()
}
