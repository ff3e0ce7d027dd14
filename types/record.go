package types

// Record represents a discovered cloud resource flowing through the pipeline
type Record struct {
	ARN        string            `json:"arn"`
	Region     string            `json:"region"`
	Service    string            `json:"service"`
	Type       string            `json:"type,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	Provenance Provenance        `json:"provenance,omitzero"`
}

// Provenance explains who created or last touched a resource
type Provenance struct {
	Actor     string `json:"actor"`
	Event     string `json:"event"`
	EventTime string `json:"event_time"`
}

// UnknownProvenance is the sentinel used when the audit trail has no answer
var UnknownProvenance = Provenance{
	Actor:     "Unknown",
	Event:     "Unknown",
	EventTime: "Unknown",
}

// IsZero reports whether provenance was never populated
func (p Provenance) IsZero() bool {
	return p == Provenance{}
}

// Dedupe collapses records sharing an ARN, keeping the first occurrence.
// Order of survivors follows first appearance.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ARN == "" || seen[r.ARN] {
			continue
		}
		seen[r.ARN] = true
		out = append(out, r)
	}
	return out
}
