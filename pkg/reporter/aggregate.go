package reporter

import (
	"cmp"
	"encoding/binary"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/montanaflynn/stats"
	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

// AggregateRecord summarizes benchmark results of a single server.
type AggregateRecord struct {
	Server *nameserver.Nameserver
	// OverallAverage is the mean of RunAverages.
	OverallAverage time.Duration
	RunAverages    []time.Duration
	Fastest        time.Duration
	Slowest        time.Duration
	// FailureCount is the number of queries without response.
	FailureCount int
	// NXCount is the number of responses with an empty answer.
	NXCount int
	// TotalCount is the number of queries of a single run.
	TotalCount int
}

// Aggregator computes statistics from benchmark results.
type Aggregator struct {
	// Servers are all servers which took part in qualification, including disabled ones.
	Servers []*nameserver.Nameserver
	Results dnsbench.Results

	mu          sync.Mutex
	fingerprint uint64
	cached      []AggregateRecord
}

// New creates Aggregator for the given servers and benchmark results.
func New(servers []*nameserver.Nameserver, results dnsbench.Results) *Aggregator {
	return &Aggregator{Servers: servers, Results: results}
}

// fingerprintResults hashes everything averages are computed from.
func fingerprintResults(results dnsbench.Results) uint64 {
	d := xxhash.New()
	var buf []byte
	for _, sr := range results {
		_, _ = d.WriteString(sr.Server.IP())
		for _, run := range sr.Runs {
			buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(len(run)))
			for _, q := range run {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(q.Duration))
				if q.Response == nil {
					buf = append(buf, 0)
				} else {
					buf = binary.LittleEndian.AppendUint32(buf, uint32(len(q.Response.Answer))+1)
				}
			}
			_, _ = d.Write(buf)
		}
	}
	return d.Sum64()
}

// ComputeAverages computes aggregates of every server with at least one query, ordered by overall average.
// Results are cached until the underlying results change.
func (a *Aggregator) ComputeAverages() []AggregateRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	fp := fingerprintResults(a.Results)
	if a.cached != nil && fp == a.fingerprint {
		return slices.Clone(a.cached)
	}

	records := make([]AggregateRecord, 0, len(a.Results))
	for _, sr := range a.Results {
		rec := AggregateRecord{Server: sr.Server}
		var runAverages []float64
		for _, run := range sr.Runs {
			if len(run) == 0 {
				continue
			}
			var sum time.Duration
			for _, q := range run {
				sum += q.Duration
				switch {
				case q.Response == nil:
					rec.FailureCount++
				case len(q.Response.Answer) == 0:
					rec.NXCount++
				}
			}
			avg := sum / time.Duration(len(run))
			rec.RunAverages = append(rec.RunAverages, avg)
			runAverages = append(runAverages, float64(avg))
			rec.TotalCount = len(run)
		}
		if len(runAverages) == 0 {
			continue
		}
		mean, _ := stats.Mean(runAverages)
		rec.OverallAverage = time.Duration(mean)
		rec.Fastest, rec.Slowest, _ = fastestAndSlowest(sr)
		records = append(records, rec)
	}
	slices.SortStableFunc(records, func(x, y AggregateRecord) int {
		return cmp.Compare(x.OverallAverage, y.OverallAverage)
	})

	a.fingerprint = fp
	a.cached = records
	return slices.Clone(records)
}

// FastestAndSlowest returns the fastest duration of a query which got an answer and the slowest duration
// of any query. Without any answered query, the fastest of all durations is used.
func (a *Aggregator) FastestAndSlowest(ns *nameserver.Nameserver) (fastest, slowest time.Duration, ok bool) {
	sr := a.Results.For(ns)
	if sr == nil {
		return 0, 0, false
	}
	return fastestAndSlowest(sr)
}

func fastestAndSlowest(sr *dnsbench.ServerResults) (fastest, slowest time.Duration, ok bool) {
	var minAll, minAnswered time.Duration
	var seen, answered bool
	for _, run := range sr.Runs {
		for _, q := range run {
			if !seen || q.Duration < minAll {
				minAll = q.Duration
			}
			if !seen || q.Duration > slowest {
				slowest = q.Duration
			}
			seen = true
			if q.Answered() && (!answered || q.Duration < minAnswered) {
				minAnswered = q.Duration
				answered = true
			}
		}
	}
	if !seen {
		return 0, 0, false
	}
	if answered {
		return minAnswered, slowest, true
	}
	return minAll, slowest, true
}

// ServerDuration pairs a server with a duration.
type ServerDuration struct {
	Server   *nameserver.Nameserver
	Duration time.Duration
}

// FastestNameServerResult returns the fastest response of every server, fastest first.
func (a *Aggregator) FastestNameServerResult() []ServerDuration {
	var fastest []ServerDuration
	for _, sr := range a.Results {
		if f, _, ok := fastestAndSlowest(sr); ok {
			fastest = append(fastest, ServerDuration{Server: sr.Server, Duration: f})
		}
	}
	slices.SortStableFunc(fastest, func(x, y ServerDuration) int {
		return cmp.Compare(x.Duration, y.Duration)
	})
	return fastest
}

// BestOverallNameServer returns the server with the lowest overall average which is not failure prone.
// When every server is failure prone, the one with the lowest average is returned anyway. It reports
// false only when there are no results at all.
func (a *Aggregator) BestOverallNameServer() (*nameserver.Nameserver, bool) {
	records := a.ComputeAverages()
	if len(records) == 0 {
		return nil, false
	}
	for _, r := range records {
		if !r.Server.IsFailureProne() {
			return r.Server, true
		}
	}
	return records[0].Server, true
}

// NearestNameServers returns count servers with the fastest individual responses.
func (a *Aggregator) NearestNameServers(count int) []*nameserver.Nameserver {
	var nearest []*nameserver.Nameserver
	for _, f := range a.FastestNameServerResult() {
		if len(nearest) == count {
			break
		}
		nearest = append(nearest, f.Server)
	}
	return nearest
}

// Recommended returns the best overall server followed by up to two other nearest servers.
func (a *Aggregator) Recommended() []*nameserver.Nameserver {
	best, ok := a.BestOverallNameServer()
	if !ok {
		return nil
	}
	recommended := []*nameserver.Nameserver{best}
	for _, ns := range a.NearestNameServers(3) {
		if len(recommended) == 3 {
			break
		}
		if ns.IP() != best.IP() {
			recommended = append(recommended, ns)
		}
	}
	return recommended
}

// Reference selects the server improvements are computed against: the current primary system resolver
// if it was benchmarked, otherwise the fastest server which is not a global one, otherwise the second
// best server.
func (a *Aggregator) Reference() (*nameserver.Nameserver, bool) {
	records := a.ComputeAverages()
	if len(records) == 0 {
		return nil, false
	}
	var fastestNonGlobal *nameserver.Nameserver
	for _, r := range records {
		ns := r.Server
		if ns.Disabled() {
			continue
		}
		if ns.SystemPosition == 0 {
			return ns, true
		}
		if fastestNonGlobal == nil && !ns.IsGlobal {
			fastestNonGlobal = ns
		}
	}
	if fastestNonGlobal != nil {
		return fastestNonGlobal, true
	}
	if len(records) > 1 {
		return records[1].Server, true
	}
	return records[0].Server, true
}

// DiffPercent is how much faster, in percent, a server with the given average is than the reference.
func DiffPercent(reference, average time.Duration) float64 {
	if average <= 0 {
		return 0
	}
	return (float64(reference)/float64(average) - 1) * 100
}

// Durations returns all query durations of every benchmarked server.
func (a *Aggregator) Durations() map[*nameserver.Nameserver][]time.Duration {
	durations := make(map[*nameserver.Nameserver][]time.Duration, len(a.Results))
	for _, sr := range a.Results {
		var d []time.Duration
		for _, run := range sr.Runs {
			for _, q := range run {
				d = append(d, q.Duration)
			}
		}
		durations[sr.Server] = d
	}
	return durations
}
