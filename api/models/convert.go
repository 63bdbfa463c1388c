package models

import (
	"novelbit/fingerprint"
	"novelbit/novelbit"
	"novelbit/rank"
)

func NewBits(text string, fp fingerprint.Fingerprint) Bits {
	return Bits{Text: text, BitMax: fp.Max, BitMin: fp.Min}
}

func NewFingerprintResponse(r fingerprint.Result) FingerprintResponse {
	return FingerprintResponse{OK: true, Max: r.Max, Min: r.Min, Length: r.Length, Valid: r.Valid}
}

// NewDataItem converts a stored item. A zero creation time is omitted.
func NewDataItem(it novelbit.Item) DataItem {
	out := DataItem{
		UUID:      it.Data.UUID,
		Attribute: NewBits(it.Attribute.Text, it.Attribute.Fingerprint),
		Data:      NewBits(it.Data.Text, it.Data.Fingerprint),
		Metadata:  it.Data.Metadata,
	}
	if !it.Data.Created.IsZero() {
		out.T = it.Data.Created.UnixMilli()
	}
	return out
}

func NewSearchResponse(hits []rank.Scored) SearchResponse {
	out := make([]ScoredAttribute, 0, len(hits))
	for _, h := range hits {
		out = append(out, ScoredAttribute{Bits: NewBits(h.Text, h.Fingerprint), Score: h.Score})
	}
	return SearchResponse{OK: true, Count: len(out), Attributes: out}
}

// NewDeleteResponse reports an attribute delete with its parts.
func NewDeleteResponse(res novelbit.DeleteResult) DeleteResponse {
	attrs, recs := res.Attributes, res.Records
	return DeleteResponse{OK: true, DeletedCount: res.Total(), DeletedAttributes: &attrs, DeletedRecords: &recs}
}
