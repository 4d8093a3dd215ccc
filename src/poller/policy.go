package poller

import "encoding/json"

// FailurePolicy decides what a failed query resolves to. Returning ok=false
// leaves the query in ERROR.
type FailurePolicy func(req Request, err error) (data json.RawMessage, ok bool)

// SurfaceError keeps the failure visible to the caller.
func SurfaceError(Request, error) (json.RawMessage, bool) {
	return nil, false
}

// EmptyOnError resolves failures to an empty list.
func EmptyOnError(Request, error) (json.RawMessage, bool) {
	return json.RawMessage(`[]`), true
}

// FallbackOnError resolves failures to locally generated data.
func FallbackOnError(generate func(req Request) (any, error)) FailurePolicy {
	return func(req Request, _ error) (json.RawMessage, bool) {
		v, err := generate(req)
		if err != nil {
			return nil, false
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return data, true
	}
}
