package dnsbench

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

// Benchmark is representation of benchmark scenario.
type Benchmark struct {
	// Servers to benchmark, disabled servers are skipped.
	Servers []*nameserver.Nameserver

	// RunCount is the number of sequential runs over all test records.
	RunCount int

	// Concurrency is the number of servers queried in parallel for a single record.
	Concurrency int

	// Rate limits the number of queries per second across all servers, 0 means unlimited.
	Rate int

	Silent bool
	// Writer receives the progress bar, os.Stderr when nil.
	Writer io.Writer
	Logger nameserver.Logger
}

func (b *Benchmark) runCount() int {
	if b.RunCount <= 0 {
		return DefaultRunCount
	}
	return b.RunCount
}

func (b *Benchmark) concurrency(servers int) int {
	n := b.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	return max(min(n, servers), 1)
}

func (b *Benchmark) logger() nameserver.Logger {
	if b.Logger == nil {
		return nameserver.DiscardLogger
	}
	return b.Logger
}

func (b *Benchmark) progress(total int) *progressbar.ProgressBar {
	if b.Silent {
		return progressbar.DefaultSilent(int64(total))
	}
	w := b.Writer
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetDescription("Benchmarking"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// Run queries every test record on every enabled server, RunCount times. For a given run and record
// all servers are queried before the benchmark advances to the next record. Failed queries are
// recorded with the server timeout as their duration. When ctx is done, no further records are
// dispatched and the results hold only the completed queries.
func (b *Benchmark) Run(ctx context.Context, records []TestRecord) Results {
	var servers []*nameserver.Nameserver
	for _, ns := range b.Servers {
		if !ns.Disabled() {
			servers = append(servers, ns)
		}
	}
	runCount := b.runCount()

	results := make(Results, len(servers))
	for i, ns := range servers {
		ns.ResetErrorCounts()
		results[i] = &ServerResults{Server: ns, Runs: make([][]QueryResult, runCount)}
		for run := range results[i].Runs {
			results[i].Runs[run] = make([]QueryResult, len(records))
		}
	}
	if len(servers) == 0 {
		return results
	}

	var limit ratelimit.Limiter
	if b.Rate > 0 {
		limit = ratelimit.New(b.Rate)
	}
	concurrency := b.concurrency(len(servers))
	bar := b.progress(runCount * len(records) * len(servers))
	b.logger().Infof("benchmarking %d servers with %d records, %d runs (%d threads)", len(servers), len(records), runCount, concurrency)

runs:
	for run := range runCount {
		for i, rec := range records {
			if ctx.Err() != nil {
				for _, sr := range results {
					sr.Runs[run] = sr.Runs[run][:i]
					sr.Runs = sr.Runs[:run+1]
				}
				break runs
			}

			var g errgroup.Group
			g.SetLimit(concurrency)
			for s, ns := range servers {
				g.Go(func() error {
					if limit != nil {
						limit.Take()
					}
					resp, dur, err := ns.TimedRequest(rec.Type, rec.Name, ns.Timeout)
					if err != nil {
						dur = ns.Timeout
					}
					results[s].Runs[run][i] = QueryResult{
						Hostname:   rec.Name,
						RecordType: rec.Type,
						Duration:   dur,
						Response:   resp,
						Err:        err,
					}
					_ = bar.Add(1)
					return nil
				})
			}
			_ = g.Wait()
		}
	}
	_ = bar.Finish()
	return results
}
