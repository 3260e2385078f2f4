package transport

// Kind tags what a single exchange produced.
type Kind int

const (
	TransportError Kind = iota
	EmptyResponse
	DecodeFallback
	Success
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case DecodeFallback:
		return "decode_fallback"
	case EmptyResponse:
		return "empty_response"
	default:
		return "transport_error"
	}
}

// Result is the outcome of one request/response cycle. It is only valid for
// the interaction that produced it.
type Result struct {
	Value any    // decoded JSON document, set for Success
	Raw   string // response text, set for Success, DecodeFallback and an empty document
	Err   error  // set for TransportError
	Kind  Kind
}

// OK reports whether the controller answered with something usable. A reply
// that is not JSON still counts; an empty JSON document does not.
func (r Result) OK() bool {
	return r.Kind == Success || r.Kind == DecodeFallback
}
