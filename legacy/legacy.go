// Package legacy imports the append-only NDJSON logs written by the original
// file-tree server (data/max/<digits>/max_bit/*.ndjson) into a novelbit store.
package legacy

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"novelbit/fingerprint"
	"novelbit/novelbit"
)

// DefaultPattern matches every max-side record file. The min side holds the
// same lines, so it is skipped.
const DefaultPattern = "max/**/max_bit/*.ndjson"

var ErrNoAttribute = errors.New("line has no attribute text")

// Entry is one decoded log line.
type Entry struct {
	AttributeText string
	// AttributeBits is nil when the line did not carry attribute bits.
	AttributeBits *fingerprint.Fingerprint
	Text          string
	Bits          fingerprint.Fingerprint
	Created       time.Time
	Metadata      map[string]any
}

var reserved = map[string]bool{"attribute": true, "s": true, "max": true, "min": true, "t": true}

// ParseLine decodes a single NDJSON line. Unknown keys become metadata.
func ParseLine(line []byte) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, fmt.Errorf("decode line: %w", err)
	}

	var e Entry
	attr, _ := raw["attribute"].(map[string]any)
	if attr != nil {
		e.AttributeText, _ = attr["text"].(string)
		mx, okMax := number(attr["bitMax"])
		mn, okMin := number(attr["bitMin"])
		if okMax && okMin {
			e.AttributeBits = &fingerprint.Fingerprint{Max: mx, Min: mn}
		}
	}
	if e.AttributeText == "" {
		return Entry{}, ErrNoAttribute
	}
	e.Text, _ = raw["s"].(string)
	e.Bits.Max, _ = number(raw["max"])
	e.Bits.Min, _ = number(raw["min"])
	if ms, ok := number(raw["t"]); ok && ms > 0 {
		e.Created = time.UnixMilli(int64(ms))
	}

	for k, v := range raw {
		if reserved[k] {
			continue
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[k] = v
	}
	return e, nil
}

// number accepts JSON numbers and numeric strings; the original server wrote
// both.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

// Find returns the log files under root matching pattern, sorted.
func Find(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	sort.Strings(files)
	return files, nil
}

type Options struct {
	// KeepBits stores the fingerprints recorded in the log instead of
	// recomputing them with the store's Fingerprinter.
	KeepBits bool
	Workers  int
	// OnFile is called after each file finishes.
	OnFile func(path string)
}

type Report struct {
	Files      int
	Lines      int64
	Saved      int64
	Duplicates int64
	Skipped    int64
}

// Import saves every entry of files into n. Lines that fail to decode or
// validate are counted as skipped; storage errors abort the import.
func Import(ctx context.Context, n *novelbit.Novelbit, files []string, opts Options) (Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	var lines, saved, dups, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			err = scan(f, func(line []byte) error {
				lines.Add(1)
				e, err := ParseLine(line)
				if err != nil {
					n.Logger().Debug("skipping legacy line", "file", path, "error", err)
					skipped.Add(1)
					return nil
				}
				res, err := save(ctx, n, e, opts.KeepBits)
				switch {
				case isInputError(err):
					n.Logger().Debug("skipping legacy entry", "file", path, "error", err)
					skipped.Add(1)
				case err != nil:
					return fmt.Errorf("%s: %w", path, err)
				case res.Duplicate:
					dups.Add(1)
				default:
					saved.Add(1)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if opts.OnFile != nil {
				opts.OnFile(path)
			}
			return nil
		})
	}
	err := g.Wait()

	return Report{
		Files:      len(files),
		Lines:      lines.Load(),
		Saved:      saved.Load(),
		Duplicates: dups.Load(),
		Skipped:    skipped.Load(),
	}, err
}

func scan(r io.Reader, fn func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func save(ctx context.Context, n *novelbit.Novelbit, e Entry, keepBits bool) (novelbit.SaveResult, error) {
	in := novelbit.SaveInput{
		AttributeText: e.AttributeText,
		Text:          e.Text,
		Metadata:      e.Metadata,
		Created:       e.Created,
	}
	if keepBits && e.AttributeBits != nil {
		in.AttributeFingerprint = *e.AttributeBits
		in.DataFingerprint = e.Bits
		return n.Save(ctx, in)
	}

	attr, err := n.Fingerprint(ctx, e.AttributeText)
	if err != nil {
		return novelbit.SaveResult{}, err
	}
	data, err := n.Fingerprint(ctx, e.Text)
	if err != nil {
		return novelbit.SaveResult{}, err
	}
	in.AttributeFingerprint = attr.Fingerprint
	in.DataFingerprint = data.Fingerprint
	return n.Save(ctx, in)
}

func isInputError(err error) bool {
	return errors.Is(err, novelbit.ErrEmptyPath) ||
		errors.Is(err, novelbit.ErrEmptyText) ||
		errors.Is(err, novelbit.ErrInvalidFingerprint) ||
		errors.Is(err, novelbit.ErrTooLong)
}
