package novelbit

import (
	"context"
	"encoding/json"
	"strings"

	"novelbit/fingerprint"
	"novelbit/storage"
)

func attributeOf(r storage.AttributeRow) Attribute {
	return Attribute{Text: r.Text, Fingerprint: fingerprint.Fingerprint{Max: r.BitMax, Min: r.BitMin}}
}

func (n *Novelbit) ListAttributes(ctx context.Context) ([]Attribute, error) {
	repos, err := n.repos()
	if err != nil {
		return nil, err
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	rows, err := repos.Attribute().List(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	out := make([]Attribute, 0, len(rows))
	for _, r := range rows {
		out = append(out, attributeOf(r))
	}
	return out, nil
}

// ListData returns records under attrFp, most recent first.
func (n *Novelbit) ListData(ctx context.Context, attrFp fingerprint.Fingerprint, limit int) ([]Item, error) {
	return n.ListDataMatching(ctx, attrFp, "", limit)
}

// ListDataMatching is ListData restricted to attributes whose text contains
// attributeText. An empty attributeText matches all.
func (n *Novelbit) ListDataMatching(ctx context.Context, attrFp fingerprint.Fingerprint, attributeText string, limit int) ([]Item, error) {
	repos, err := n.repos()
	if err != nil {
		return nil, err
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	attrs, err := repos.Attribute().Match(ctx, bitsOf(attrFp))
	if err != nil {
		return nil, storageErr(err)
	}
	byID := make(map[int64]storage.AttributeRow, len(attrs))
	ids := make([]int64, 0, len(attrs))
	for _, a := range attrs {
		if attributeText != "" && !strings.Contains(a.Text, attributeText) {
			continue
		}
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return []Item{}, nil
	}

	rows, err := repos.Record().List(ctx, ids, n.Config.clampLimit(limit))
	if err != nil {
		return nil, storageErr(err)
	}
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		var meta map[string]any
		if r.Metadata != "" {
			if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
				n.logger.Warn("invalid record metadata", "uuid", r.UUID, "error", err)
			}
		}
		out = append(out, Item{
			Attribute: attributeOf(byID[r.AttributeID]),
			Data: DataRecord{
				UUID:        r.UUID,
				Text:        r.Text,
				Fingerprint: fingerprint.Fingerprint{Max: r.BitMax, Min: r.BitMin},
				Metadata:    meta,
				Created:     r.Created(),
			},
		})
	}
	return out, nil
}

// DeleteData removes records whose fingerprint matches dataFp within
// fingerprint.Epsilon, under every attribute matching attrFp. Colliding paths
// are all affected; DeleteDataPath limits the delete to one path. A zero
// count is not an error.
func (n *Novelbit) DeleteData(ctx context.Context, attrFp, dataFp fingerprint.Fingerprint) (int, error) {
	return n.deleteData(ctx, dataFp, func(ctx context.Context, repos storage.Repos) ([]storage.AttributeRow, error) {
		return repos.Attribute().Match(ctx, bitsOf(attrFp))
	})
}

// DeleteDataPath is DeleteData restricted to the attribute with exactly
// attrText.
func (n *Novelbit) DeleteDataPath(ctx context.Context, attrText string, attrFp, dataFp fingerprint.Fingerprint) (int, error) {
	if strings.TrimSpace(attrText) == "" {
		return 0, ErrEmptyPath
	}
	return n.deleteData(ctx, dataFp, exactAttribute(attrText, attrFp))
}

func (n *Novelbit) deleteData(ctx context.Context, dataFp fingerprint.Fingerprint, match attributeMatcher) (int, error) {
	repos, err := n.repos()
	if err != nil {
		return 0, err
	}

	var deleted int
	err = withRetry(ctx, func() error {
		ctx, cancel := n.withTimeout(ctx)
		defer cancel()
		attrs, err := match(ctx, repos)
		if err != nil {
			return err
		}
		deleted, err = repos.Record().DeleteMatching(ctx, attributeIDs(attrs), bitsOf(dataFp))
		return err
	})
	if err != nil {
		return 0, storageErr(err)
	}
	n.logger.Debug("records deleted", "count", deleted)
	return deleted, nil
}

type attributeMatcher func(context.Context, storage.Repos) ([]storage.AttributeRow, error)

func exactAttribute(text string, fp fingerprint.Fingerprint) attributeMatcher {
	return func(ctx context.Context, repos storage.Repos) ([]storage.AttributeRow, error) {
		row, ok, err := repos.Attribute().Find(ctx, text, bitsOf(fp))
		if err != nil || !ok {
			return nil, err
		}
		return []storage.AttributeRow{row}, nil
	}
}

// DeleteAttribute removes every attribute matching attrFp and all records
// stored under them. Distinct paths with colliding fingerprints are removed
// together; use DeleteAttributePath to remove a single path.
func (n *Novelbit) DeleteAttribute(ctx context.Context, attrFp fingerprint.Fingerprint) (DeleteResult, error) {
	return n.deleteAttributes(ctx, func(ctx context.Context, repos storage.Repos) ([]storage.AttributeRow, error) {
		return repos.Attribute().Match(ctx, bitsOf(attrFp))
	})
}

// DeleteAttributePath removes the attribute with exactly text and a
// fingerprint matching attrFp, and its records.
func (n *Novelbit) DeleteAttributePath(ctx context.Context, text string, attrFp fingerprint.Fingerprint) (DeleteResult, error) {
	if strings.TrimSpace(text) == "" {
		return DeleteResult{}, ErrEmptyPath
	}
	return n.deleteAttributes(ctx, exactAttribute(text, attrFp))
}

// DeleteAttributeText removes attributes by exact path text.
func (n *Novelbit) DeleteAttributeText(ctx context.Context, text string) (DeleteResult, error) {
	if strings.TrimSpace(text) == "" {
		return DeleteResult{}, ErrEmptyPath
	}
	return n.deleteAttributes(ctx, func(ctx context.Context, repos storage.Repos) ([]storage.AttributeRow, error) {
		return repos.Attribute().MatchText(ctx, text)
	})
}

func (n *Novelbit) deleteAttributes(ctx context.Context, match attributeMatcher) (DeleteResult, error) {
	repos, err := n.repos()
	if err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	err = withRetry(ctx, func() error {
		ctx, cancel := n.withTimeout(ctx)
		defer cancel()
		attrs, err := match(ctx, repos)
		if err != nil {
			return err
		}
		ids := attributeIDs(attrs)
		if res.Records, err = repos.Record().DeleteByAttribute(ctx, ids); err != nil {
			return err
		}
		res.Attributes, err = repos.Attribute().Delete(ctx, ids)
		return err
	})
	if err != nil {
		return DeleteResult{}, storageErr(err)
	}
	n.logger.Debug("attributes deleted", "attributes", res.Attributes, "records", res.Records)
	return res, nil
}

// Verify reports whether a record with exactly text exists under attrFp.
func (n *Novelbit) Verify(ctx context.Context, attrFp fingerprint.Fingerprint, text string) (bool, error) {
	repos, err := n.repos()
	if err != nil {
		return false, err
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	attrs, err := repos.Attribute().Match(ctx, bitsOf(attrFp))
	if err != nil {
		return false, storageErr(err)
	}
	ok, err := repos.Record().HasText(ctx, attributeIDs(attrs), text)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}

func (n *Novelbit) Stats(ctx context.Context) (Stats, error) {
	repos, err := n.repos()
	if err != nil {
		return Stats{}, err
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	var s Stats
	if s.Attributes, err = repos.Attribute().Count(ctx); err != nil {
		return Stats{}, storageErr(err)
	}
	if s.Records, err = repos.Record().Count(ctx); err != nil {
		return Stats{}, storageErr(err)
	}
	if s.EmptyAttributes, err = repos.Attribute().CountEmpty(ctx); err != nil {
		return Stats{}, storageErr(err)
	}
	return s, nil
}
