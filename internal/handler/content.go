package handler

import (
	"context"
	"fmt"
)

// ContentWriter simulates a drafting service.
type ContentWriter struct{}

func NewContentWriter() *ContentWriter {
	return &ContentWriter{}
}

func (w *ContentWriter) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topic := fields["content_topic"]
	tone := fields["tone"]
	if tone == "" {
		tone = "neutral"
	}
	format := fields["format"]
	if format == "" {
		format = "article"
	}

	return map[string]string{
		"draft":   fmt.Sprintf("[%s draft, %s tone] %s: an opening paragraph introducing the topic, three supporting points, and a closing thought.", format, tone, topic),
		"summary": fmt.Sprintf("Drafted %s about %q", format, topic),
	}, nil
}
