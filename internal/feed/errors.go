package feed

import "fmt"

// TransportError reports a connectivity problem or timeout talking to the feed.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("feed transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a non-success HTTP status from the feed endpoint.
type ProtocolError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("feed returned HTTP %d for %s", e.StatusCode, e.URL)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// DecodeError reports a feed body that is not a well-formed product document.
type DecodeError struct {
	// Offset is the input byte offset where decoding stopped
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed feed document at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
