package novelbit

import (
	"time"

	"novelbit/fingerprint"
)

// Attribute is a stored attribute path and its fingerprint.
type Attribute struct {
	Text        string
	Fingerprint fingerprint.Fingerprint
}

// DataRecord is one piece of content stored under an attribute.
type DataRecord struct {
	UUID        string
	Text        string
	Fingerprint fingerprint.Fingerprint
	Metadata    map[string]any
	Created     time.Time
}

// Item pairs a record with the attribute it is stored under.
type Item struct {
	Attribute Attribute
	Data      DataRecord
}

type SaveInput struct {
	AttributeText        string
	AttributeFingerprint fingerprint.Fingerprint
	Text                 string
	DataFingerprint      fingerprint.Fingerprint
	Metadata             map[string]any
	// Created overrides the record timestamp; zero means now.
	Created time.Time
}

type SaveResult struct {
	Duplicate bool
	Item      Item
}

type DeleteResult struct {
	Attributes int
	Records    int
}

// Total is the combined number of removed rows. Zero means nothing matched.
func (d DeleteResult) Total() int { return d.Attributes + d.Records }

type Stats struct {
	Attributes      int
	Records         int
	EmptyAttributes int
}

type SearchQuery struct {
	Text     string
	Keywords []string
	Limit    int
}
