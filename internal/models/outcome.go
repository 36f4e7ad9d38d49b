package models

import "encoding/json"

// FailureKind classifies why a search produced no result
type FailureKind string

const (
	FailureTimeout        FailureKind = "timeout"
	FailureRemoteFetch    FailureKind = "remote_fetch"
	FailurePortalReported FailureKind = "portal_reported"
	FailureNoData         FailureKind = "no_data"
	FailureUnexpected     FailureKind = "unexpected"
)

// SearchOutcome is the result of exactly one search attempt: either a
// result or a failure reason, never both.
type SearchOutcome struct {
	result *CaseResult
	kind   FailureKind
	reason string
}

// Success builds a successful outcome
func Success(result *CaseResult) SearchOutcome {
	if result == nil {
		result = &CaseResult{}
	}
	return SearchOutcome{result: result}
}

// Failure builds a failed outcome
func Failure(kind FailureKind, reason string) SearchOutcome {
	if kind == "" {
		kind = FailureUnexpected
	}
	return SearchOutcome{kind: kind, reason: reason}
}

// OK reports whether the attempt produced a result
func (o SearchOutcome) OK() bool {
	return o.result != nil
}

// Result returns the scraped result, nil on failure
func (o SearchOutcome) Result() *CaseResult {
	return o.result
}

// Kind returns the failure kind, empty on success
func (o SearchOutcome) Kind() FailureKind {
	return o.kind
}

// Reason returns the user-facing failure text, empty on success
func (o SearchOutcome) Reason() string {
	return o.reason
}

type outcomeJSON struct {
	OK     bool        `json:"ok"`
	Result *CaseResult `json:"result"`
	Kind   FailureKind `json:"kind,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (o SearchOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON{
		OK:     o.OK(),
		Result: o.result,
		Kind:   o.kind,
		Error:  o.reason,
	})
}
