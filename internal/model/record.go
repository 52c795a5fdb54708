package model

// Mode selects which preparation steps run.
type Mode string

const (
	// ModeTraining prepares a batch that includes the target and drops outlier rows.
	ModeTraining Mode = "training"
	// ModeInference prepares exactly one row without the target and validates its domain.
	ModeInference Mode = "inference"
)

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// RawRecord is one unvalidated input row keyed by raw column name.
type RawRecord map[string]string

// Clone returns a copy that can be modified without touching the original.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
