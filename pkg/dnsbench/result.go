package dnsbench

import (
	"time"

	"github.com/miekg/dns"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

// QueryResult is the outcome of a single benchmark query.
type QueryResult struct {
	Hostname   string
	RecordType string
	// Duration is the measured duration, or the server timeout for failed queries.
	Duration time.Duration
	// Response is nil for failed queries.
	Response *dns.Msg
	Err      error
}

// Answered reports whether the query received a response with a non-empty answer.
func (q QueryResult) Answered() bool {
	return q.Response != nil && len(q.Response.Answer) > 0
}

// ServerResults holds results of a single server, indexed by run and then by record.
type ServerResults struct {
	Server *nameserver.Nameserver
	Runs   [][]QueryResult
}

// Results are benchmark results of all benchmarked servers.
type Results []*ServerResults

// For returns results of the given server, or nil if it was not benchmarked.
func (r Results) For(ns *nameserver.Nameserver) *ServerResults {
	for _, sr := range r {
		if sr.Server == ns {
			return sr
		}
	}
	return nil
}
