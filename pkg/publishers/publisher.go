package publishers

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/internal/logger"
)

// Logger is the structured logger publishers report through.
type Logger = logger.Logger

// Publisher delivers ranked articles to a downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Batch is one run's ranked output handed to the publishers.
type Batch struct {
	RunID      string
	CapturedAt time.Time
	Articles   []domain.MergedArticle
}

// Event is the payload delivered for one ranked article.
type Event struct {
	ID          string    `json:"id"`
	RunID       string    `json:"runId,omitempty"`
	Rank        int       `json:"rank"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Image       *string   `json:"image"`
	PublishedAt time.Time `json:"publishedAt"`
	Score       float64   `json:"score"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// NewEvent builds the event for the article at position rank (1-based).
func NewEvent(a domain.MergedArticle, rank int, b Batch) Event {
	return Event{
		ID:          hashURL(a.URL),
		RunID:       b.RunID,
		Rank:        rank,
		Title:       a.Title,
		Description: a.Description,
		Source:      a.Source,
		URL:         a.URL,
		Image:       a.Image,
		PublishedAt: a.PublishedAt,
		Score:       a.Score,
		CapturedAt:  b.CapturedAt,
	}
}

// filter is implemented by publishers that only want some events.
type filter interface {
	Accepts(evt Event) bool
}

// PublishAll sends every article to every publisher that accepts it. A failing
// publisher is logged and does not stop the others; the number of failed sends
// is returned with the first error.
func PublishAll(ctx context.Context, pubs []Publisher, b Batch, log Logger) (int, error) {
	log = ensureLogger(log)

	var (
		sent     int
		failed   int
		firstErr error
	)
	for i, a := range b.Articles {
		evt := NewEvent(a, i+1, b)
		for _, pub := range pubs {
			if f, ok := pub.(filter); ok && !f.Accepts(evt) {
				continue
			}
			sent++
			if err := pub.Publish(ctx, evt); err != nil {
				failed++
				if firstErr == nil {
					firstErr = fmt.Errorf("publisher %s: %w", pub.ID(), err)
				}
				log.WarnObj("publish failed", "publish_error", map[string]any{
					"publisher_id": pub.ID(),
					"url":          a.URL,
					"error":        err.Error(),
				})
			}
		}
	}

	log.InfoObj("publish finished", "publish_complete", map[string]any{
		"run_id":     b.RunID,
		"articles":   len(b.Articles),
		"publishers": len(pubs),
		"sent":       sent,
		"failed":     failed,
	})
	return failed, firstErr
}

// eventAttributes are the routing attributes attached to queue messages.
func eventAttributes(evt Event) map[string]string {
	attrs := map[string]string{
		"source":   evt.Source,
		"event_id": evt.ID,
		"rank":     strconv.Itoa(evt.Rank),
	}
	if evt.RunID != "" {
		attrs["run_id"] = evt.RunID
	}
	return attrs
}

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}

// hashURL generates a SHA-1 hash of the given URL string.
func hashURL(u string) string {
	sum := sha1.Sum([]byte(u)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
