package reporter

import (
	"errors"
	"time"

	"github.com/miekg/dns"
	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

var errNetwork = errors.New("connection refused")

func answered(d time.Duration) dnsbench.QueryResult {
	rr, _ := dns.NewRR("example.org. 300 IN A 192.0.2.1")
	return dnsbench.QueryResult{
		Hostname:   "example.org.",
		RecordType: "A",
		Duration:   d,
		Response:   &dns.Msg{Answer: []dns.RR{rr}},
	}
}

func nxdomain(d time.Duration) dnsbench.QueryResult {
	return dnsbench.QueryResult{
		Hostname:   "nx.example.org.",
		RecordType: "A",
		Duration:   d,
		Response:   &dns.Msg{MsgHdr: dns.MsgHdr{Rcode: dns.RcodeNameError}},
	}
}

func failed(d time.Duration) dnsbench.QueryResult {
	return dnsbench.QueryResult{
		Hostname:   "example.org.",
		RecordType: "A",
		Duration:   d,
		Err:        errNetwork,
	}
}

// runOf creates a run of answered queries with the given durations in milliseconds.
func runOf(millis ...int) []dnsbench.QueryResult {
	run := make([]dnsbench.QueryResult, 0, len(millis))
	for _, ms := range millis {
		run = append(run, answered(time.Duration(ms)*time.Millisecond))
	}
	return run
}

// uniformRun creates a run of count answered queries of the same duration.
func uniformRun(count int, d time.Duration) []dnsbench.QueryResult {
	run := make([]dnsbench.QueryResult, 0, count)
	for range count {
		run = append(run, answered(d))
	}
	return run
}

// failureProne makes every query to ns fail once, so it is considered failure prone.
func failureProne(ns *nameserver.Nameserver) *nameserver.Nameserver {
	failing := nameserver.New(ns.IP(), nameserver.WithName(ns.Name),
		nameserver.WithExchanger(nameserver.ExchangerFunc(func(*dns.Msg, string, time.Duration) (*dns.Msg, error) {
			return nil, errNetwork
		})))
	_, _, _ = failing.TimedRequest("A", "example.org.", time.Second)
	return failing
}
