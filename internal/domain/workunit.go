package domain

// WorkUnit is an ordered batch of candidates handed to exactly one client.
// The candidate list is fixed at construction.
type WorkUnit struct {
	candidates []Candidate
	blob       VerificationBlob
}

// NewWorkUnit copies candidates into a new unit
func NewWorkUnit(candidates []Candidate, blob VerificationBlob) *WorkUnit {
	cs := make([]Candidate, len(candidates))
	copy(cs, candidates)
	return &WorkUnit{candidates: cs, blob: blob}
}

// Candidates returns a copy of the unit's candidates in their original order
func (w *WorkUnit) Candidates() []Candidate {
	if w == nil {
		return nil
	}
	cs := make([]Candidate, len(w.candidates))
	copy(cs, w.candidates)
	return cs
}

func (w *WorkUnit) Size() int {
	if w == nil {
		return 0
	}
	return len(w.candidates)
}

func (w *WorkUnit) Blob() VerificationBlob {
	if w == nil {
		return ""
	}
	return w.blob
}
