package domain

import "fmt"

// NetworkError reports a transport-level failure or non-success status while
// fetching a city's zone summary. Status is zero when the request never
// produced a response.
type NetworkError struct {
	CitySlug string
	Status   int
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("zone summary fetch for %q: status %d", e.CitySlug, e.Status)
	}
	return fmt.Sprintf("zone summary fetch for %q: %v", e.CitySlug, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError reports a summary payload that failed decoding or
// the cross-record invariants in [ZoneSummaryResponse.Validate].
type MalformedResponseError struct {
	CitySlug string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed zone summary for %q: %s", e.CitySlug, e.Reason)
}
