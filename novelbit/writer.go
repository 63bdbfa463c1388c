package novelbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"novelbit/storage"
)

const (
	maxRetries       = 3
	retryBackoffBase = 100 * time.Millisecond
)

// Save stores a record under the attribute with text in.AttributeText and
// fingerprint in.AttributeFingerprint. A record under that same attribute
// with identical text whose fingerprint matches within fingerprint.Epsilon
// is reported as a duplicate and nothing is written.
func (n *Novelbit) Save(ctx context.Context, in SaveInput) (SaveResult, error) {
	if strings.TrimSpace(in.AttributeText) == "" {
		return SaveResult{}, ErrEmptyPath
	}
	if in.Text == "" {
		return SaveResult{}, ErrEmptyText
	}
	if !in.AttributeFingerprint.Valid() || !in.DataFingerprint.Valid() {
		return SaveResult{}, ErrInvalidFingerprint
	}
	repos, err := n.repos()
	if err != nil {
		return SaveResult{}, err
	}

	var meta string
	if len(in.Metadata) > 0 {
		b, err := json.Marshal(in.Metadata)
		if err != nil {
			return SaveResult{}, fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}

	var res SaveResult
	err = withRetry(ctx, func() error {
		var err error
		res, err = n.save(ctx, repos, in, meta)
		return err
	})
	if err != nil {
		n.logger.Error("save failed", "attribute", in.AttributeText, "error", err)
		return SaveResult{}, storageErr(err)
	}
	if res.Duplicate {
		n.logger.Info("duplicate suppressed", "attribute", in.AttributeText)
	} else {
		n.logger.Debug("record saved", "attribute", in.AttributeText, "uuid", res.Item.Data.UUID)
	}
	return res, nil
}

func (n *Novelbit) save(ctx context.Context, repos storage.Repos, in SaveInput, meta string) (SaveResult, error) {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	// Distinct paths can share a fingerprint, so duplicates are only looked
	// for under the attribute with this exact text.
	attrBits := bitsOf(in.AttributeFingerprint)
	existing, found, err := repos.Attribute().Find(ctx, in.AttributeText, attrBits)
	if err != nil {
		return SaveResult{}, err
	}
	dup := false
	if found {
		dup, err = repos.Record().Exists(ctx, []int64{existing.ID}, in.Text, bitsOf(in.DataFingerprint))
		if err != nil {
			return SaveResult{}, err
		}
	}
	item := Item{
		Attribute: Attribute{Text: in.AttributeText, Fingerprint: in.AttributeFingerprint},
		Data: DataRecord{
			Text:        in.Text,
			Fingerprint: in.DataFingerprint,
			Metadata:    in.Metadata,
			Created:     in.Created,
		},
	}
	if dup {
		return SaveResult{Duplicate: true, Item: item}, nil
	}

	attr, _, err := repos.Attribute().FindOrCreate(ctx, in.AttributeText, attrBits)
	if err != nil {
		return SaveResult{}, err
	}
	row := storage.RecordRow{
		AttributeID: attr.ID,
		Text:        in.Text,
		BitMax:      in.DataFingerprint.Max,
		BitMin:      in.DataFingerprint.Min,
		Metadata:    meta,
	}
	if !in.Created.IsZero() {
		row.CreatedMs = in.Created.UnixMilli()
	}
	row, err = repos.Record().Create(ctx, row)
	if err != nil {
		return SaveResult{}, err
	}
	item.Data.UUID = row.UUID
	item.Data.Created = row.Created()
	return SaveResult{Item: item}, nil
}

// SaveText fingerprints attrPath and text with the configured Fingerprinter,
// then saves.
func (n *Novelbit) SaveText(ctx context.Context, attrPath, text string, metadata map[string]any) (SaveResult, error) {
	if strings.TrimSpace(attrPath) == "" {
		return SaveResult{}, ErrEmptyPath
	}
	if text == "" {
		return SaveResult{}, ErrEmptyText
	}
	fps, err := n.FingerprintTexts(ctx, []string{attrPath, text})
	if errors.Is(err, ErrTooLong) {
		return SaveResult{}, err
	}
	if err != nil {
		return SaveResult{}, fmt.Errorf("fingerprint: %w", err)
	}
	return n.Save(ctx, SaveInput{
		AttributeText:        attrPath,
		AttributeFingerprint: fps[0].Fingerprint,
		Text:                 text,
		DataFingerprint:      fps[1].Fingerprint,
		Metadata:             metadata,
	})
}

func withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !storage.IsRetriable(err) || attempt == maxRetries-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoffBase * time.Duration(1<<attempt)):
		}
	}
	return errors.New("max retries exceeded")
}

func attributeIDs(rows []storage.AttributeRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
