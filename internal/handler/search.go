package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// WebSearch simulates a search provider. The result URL is derived from the
// query so repeated turns stay deterministic.
type WebSearch struct {
	creds Credentials
}

func NewWebSearch(creds Credentials) *WebSearch {
	return &WebSearch{creds: creds}
}

func (s *WebSearch) Invoke(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(fields["query"])
	sum := sha256.Sum256([]byte(query))
	slug := strings.ReplaceAll(strings.ToLower(query), " ", "-")

	return map[string]string{
		"top_result": fmt.Sprintf("https://search.example.com/%s/%s", slug, hex.EncodeToString(sum[:4])),
		"summary":    fmt.Sprintf("Top result for %q", query),
	}, nil
}
