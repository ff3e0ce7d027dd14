package compliance

// Verdict states whether a required tag key is satisfied
type Verdict string

const (
	Present Verdict = "Present"
	Missing Verdict = "Missing"
)

// TagVerdict maps each required tag key to its verdict
type TagVerdict map[string]Verdict

// Evaluate checks normalized tags against the required keys. A key counts as
// Present only when it exists with a non-empty value. Deterministic and total:
// nil tags evaluate to all Missing.
func Evaluate(tags map[string]string, required []string) TagVerdict {
	verdict := make(TagVerdict, len(required))
	for _, key := range required {
		if v, ok := tags[key]; ok && v != "" {
			verdict[key] = Present
		} else {
			verdict[key] = Missing
		}
	}
	return verdict
}

// Compliant reports whether every required key is present
func (tv TagVerdict) Compliant() bool {
	for _, v := range tv {
		if v != Present {
			return false
		}
	}
	return true
}

// MissingKeys returns the required keys evaluated as Missing, in the order given
func (tv TagVerdict) MissingKeys(required []string) []string {
	var missing []string
	for _, key := range required {
		if tv[key] == Missing {
			missing = append(missing, key)
		}
	}
	return missing
}
