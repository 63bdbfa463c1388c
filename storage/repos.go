package storage

import (
	"context"
	"time"
)

// AttributeRow is one stored attribute path.
type AttributeRow struct {
	ID        int64
	UUID      string
	Text      string
	BitMax    float64
	BitMin    float64
	CreatedMs int64
}

// RecordRow is one stored data record. Metadata is raw JSON, possibly empty.
type RecordRow struct {
	ID          int64
	UUID        string
	AttributeID int64
	Text        string
	BitMax      float64
	BitMin      float64
	Metadata    string
	CreatedMs   int64
}

func (r RecordRow) Created() time.Time { return time.UnixMilli(r.CreatedMs) }

// Bits is a fingerprint probe: both axes must lie strictly within Eps.
type Bits struct {
	Max float64
	Min float64
	Eps float64
}

// Repos interface for driver operations
type Repos interface {
	Attribute() AttributeRepo
	Record() RecordRepo
}

type AttributeRepo interface {
	// FindOrCreate returns the attribute matching b with identical text,
	// creating it when absent. created reports whether a row was inserted.
	FindOrCreate(ctx context.Context, text string, b Bits) (row AttributeRow, created bool, err error)
	// Find returns the attribute matching b with identical text. ok is false
	// when there is none.
	Find(ctx context.Context, text string, b Bits) (row AttributeRow, ok bool, err error)
	Match(ctx context.Context, b Bits) ([]AttributeRow, error)
	MatchText(ctx context.Context, text string) ([]AttributeRow, error)
	List(ctx context.Context) ([]AttributeRow, error)
	Delete(ctx context.Context, ids []int64) (int, error)
	Count(ctx context.Context) (int, error)
	CountEmpty(ctx context.Context) (int, error)
}

type RecordRepo interface {
	Create(ctx context.Context, rec RecordRow) (RecordRow, error)
	// Exists reports a record under any of attrIDs with exactly text and
	// bits matching b.
	Exists(ctx context.Context, attrIDs []int64, text string, b Bits) (bool, error)
	HasText(ctx context.Context, attrIDs []int64, text string) (bool, error)
	// List returns records most recent first. limit <= 0 means no limit.
	List(ctx context.Context, attrIDs []int64, limit int) ([]RecordRow, error)
	DeleteMatching(ctx context.Context, attrIDs []int64, b Bits) (int, error)
	DeleteByAttribute(ctx context.Context, attrIDs []int64) (int, error)
	Count(ctx context.Context) (int, error)
}
