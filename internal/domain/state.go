package domain

// CandidateState enumerates the per-candidate ingestion milestones.
type CandidateState string

const (
	StateDiscovered      CandidateState = "discovered"
	StateKeyComputed     CandidateState = "key_computed"
	StateDuplicateSkip   CandidateState = "duplicate_skip"
	StateFetchFailed     CandidateState = "fetch_failed"
	StateEmptyBodySkip   CandidateState = "empty_body_skip"
	StateTranslateFailed CandidateState = "translate_failed"
	StateStored          CandidateState = "stored"
)

// Terminal reports whether no further transition follows s.
func (s CandidateState) Terminal() bool {
	switch s {
	case StateDuplicateSkip, StateFetchFailed, StateEmptyBodySkip, StateTranslateFailed, StateStored:
		return true
	default:
		return false
	}
}
