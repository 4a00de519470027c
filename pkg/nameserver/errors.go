package nameserver

import (
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ErrorKind is a closed classification of everything that can go wrong while qualifying
// or benchmarking a nameserver. Callers always match on the kind, never on the concrete error.
type ErrorKind int

const (
	// KindNone means no error occurred.
	KindNone ErrorKind = iota
	// KindInvalidQuery means the query could not be constructed, e.g. an unknown record type.
	KindInvalidQuery
	// KindTimeout means the transport deadline expired before a response arrived.
	KindTimeout
	// KindMalformedResponse means the response could not be decoded or was truncated.
	KindMalformedResponse
	// KindUnexpectedSource means the response did not belong to the query that was sent.
	KindUnexpectedSource
	// KindNetwork means the query could not be sent or received at the socket level.
	KindNetwork
	// KindNoAnswer means the server responded with an empty answer section.
	KindNoAnswer
	// KindHijackSuspected means the answer did not match any expected value.
	KindHijackSuspected
	// KindNXDOMAINHijackSuspected means a name that must not exist was answered.
	KindNXDOMAINHijackSuspected
	// KindWildcardStoreExhausted means no wildcard cache entries could be stored within the attempt budget.
	KindWildcardStoreExhausted
	// KindSharedCacheDetected is informational, two servers are backed by the same cache.
	KindSharedCacheDetected
)

var kindNames = map[ErrorKind]string{
	KindNone:                    "None",
	KindInvalidQuery:            "InvalidQuery",
	KindTimeout:                 "TransportTimeout",
	KindMalformedResponse:       "MalformedResponse",
	KindUnexpectedSource:        "UnexpectedResponseSource",
	KindNetwork:                 "NetworkError",
	KindNoAnswer:                "NoAnswer",
	KindHijackSuspected:         "HijackSuspected",
	KindNXDOMAINHijackSuspected: "NXDOMAINHijackSuspected",
	KindWildcardStoreExhausted:  "WildcardStoreExhausted",
	KindSharedCacheDetected:     "SharedCacheDetected",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// QueryError is returned by TimedRequest whenever a query did not produce a usable response.
type QueryError struct {
	Kind ErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind carried by err. A nil error is KindNone and an error
// which is not a *QueryError is classified from scratch.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var qerr *QueryError
	if errors.As(err, &qerr) {
		return qerr.Kind
	}
	return classify(err)
}

// classify maps raw transport errors returned by the miekg/dns client to an ErrorKind.
func classify(err error) ErrorKind {
	if errors.Is(err, dns.ErrId) {
		return KindUnexpectedSource
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *dns.Error
	if errors.As(err, &dnsErr) {
		return KindMalformedResponse
	}

	return KindNetwork
}

func newQueryError(err error) *QueryError {
	return &QueryError{Kind: classify(err), Err: err}
}
