package novelbit

import (
	"context"
	"fmt"
	"strings"

	"novelbit/fingerprint"
	"novelbit/rank"
)

// Search ranks stored attributes against q. The query text is fingerprinted
// with the configured Fingerprinter; an empty text ranks on keywords alone.
func (n *Novelbit) Search(ctx context.Context, q SearchQuery) ([]rank.Scored, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = n.Config.SearchLimit
	}

	var fp fingerprint.Fingerprint
	if q.Text != "" {
		res, err := n.Fingerprint(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("fingerprint query: %w", err)
		}
		fp = res.Fingerprint
	}

	attrs, err := n.ListAttributes(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]rank.Candidate, len(attrs))
	for i, a := range attrs {
		candidates[i] = rank.Candidate{Text: a.Text, Fingerprint: a.Fingerprint}
	}

	scored := rank.Rank(rank.Query{Text: q.Text, Fingerprint: fp, Keywords: rank.ParseKeywords(strings.Join(q.Keywords, ","))}, candidates)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	n.logger.Debug("search", "query", q.Text, "candidates", len(candidates), "hits", len(scored))
	return scored, nil
}
