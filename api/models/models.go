package models

// Bits is the wire form of a fingerprint.
type Bits struct {
	Text   string  `json:"text"`
	BitMax float64 `json:"bitMax"`
	BitMin float64 `json:"bitMin"`
}

type FingerprintRequest struct {
	Text string `json:"text"`
}

// MaxBatchTexts caps FingerprintBatchRequest.Texts; keep in step with the
// binding tag.
const MaxBatchTexts = 100

type FingerprintBatchRequest struct {
	Texts []string `json:"texts" binding:"required,max=100"`
}

type FingerprintResponse struct {
	OK     bool    `json:"ok"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Length int     `json:"length"`
	Valid  bool    `json:"valid"`
}

type FingerprintBatchResponse struct {
	OK      bool                  `json:"ok"`
	Results []FingerprintResponse `json:"results"`
}

type AttributesResponse struct {
	OK         bool   `json:"ok"`
	Count      int    `json:"count"`
	Attributes []Bits `json:"attributes"`
}

// DataItem is one record with the attribute it lives under. T is the
// creation time in Unix milliseconds.
type DataItem struct {
	UUID      string         `json:"uuid,omitempty"`
	Attribute Bits           `json:"attribute"`
	Data      Bits           `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	T         int64          `json:"t,omitempty"`
}

type DataListResponse struct {
	OK    bool       `json:"ok"`
	Count int        `json:"count"`
	Items []DataItem `json:"items"`
}

type SaveDataRequest struct {
	AttributeText   string         `json:"attributeText" binding:"required"`
	AttributeBitMax *float64       `json:"attributeBitMax" binding:"required"`
	AttributeBitMin *float64       `json:"attributeBitMin" binding:"required"`
	Text            string         `json:"text" binding:"required"`
	DataBitMax      *float64       `json:"dataBitMax" binding:"required"`
	DataBitMin      *float64       `json:"dataBitMin" binding:"required"`
	Metadata        map[string]any `json:"metadata"`
}

type SaveDataResponse struct {
	OK        bool     `json:"ok"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Record    DataItem `json:"record"`
}

// AutosaveRequest is fingerprinted server-side and saved in the background.
type AutosaveRequest struct {
	AttributeText string         `json:"attributeText" binding:"required"`
	Text          string         `json:"text" binding:"required"`
	Metadata      map[string]any `json:"metadata"`
}

type AutosaveResponse struct {
	OK     bool `json:"ok"`
	Queued bool `json:"queued"`
}

// DeleteDataRequest removes records by fingerprint. With attributeText set,
// only records under that exact path are removed.
type DeleteDataRequest struct {
	AttributeText   string   `json:"attributeText"`
	AttributeBitMax *float64 `json:"attributeBitMax" binding:"required"`
	AttributeBitMin *float64 `json:"attributeBitMin" binding:"required"`
	DataBitMax      *float64 `json:"dataBitMax" binding:"required"`
	DataBitMin      *float64 `json:"dataBitMin" binding:"required"`
}

// DeleteAttributeRequest addresses the attribute by fingerprint and text, by
// fingerprint alone (colliding paths go too), or by exact path text alone.
type DeleteAttributeRequest struct {
	AttributeText   string   `json:"attributeText"`
	AttributeBitMax *float64 `json:"attributeBitMax"`
	AttributeBitMin *float64 `json:"attributeBitMin"`
}

type DeleteResponse struct {
	OK                bool `json:"ok"`
	DeletedCount      int  `json:"deletedCount"`
	DeletedAttributes *int `json:"deletedAttributes,omitempty"`
	DeletedRecords    *int `json:"deletedRecords,omitempty"`
}

type ScoredAttribute struct {
	Bits
	Score float64 `json:"score"`
}

type SearchResponse struct {
	OK         bool              `json:"ok"`
	Count      int               `json:"count"`
	Attributes []ScoredAttribute `json:"attributes"`
}

type VerifyResponse struct {
	OK     bool `json:"ok"`
	Exists bool `json:"exists"`
}

type StatsResponse struct {
	OK              bool `json:"ok"`
	Attributes      int  `json:"attributes"`
	Records         int  `json:"records"`
	EmptyAttributes int  `json:"emptyAttributes"`
}

type HealthResponse struct {
	OK      bool    `json:"ok"`
	Uptime  float64 `json:"uptime"`
	Version string  `json:"version"`
	Storage string  `json:"storage,omitempty"`
}
