package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/fatih/color"
	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/healthcheck"
	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/nsbench/nsbench/pkg/printutils"
	"github.com/nsbench/nsbench/pkg/reporter"
)

// Benchmark is representation of the whole qualification and benchmark scenario.
type Benchmark struct {
	Servers []string
	System  bool
	Global  bool

	MaxServers int
	Hostnames  bool

	Timeout       time.Duration
	HealthTimeout time.Duration
	UDPSize       uint16

	Threads          int
	BenchmarkThreads int

	Runs       int
	QueryCount int
	SelectMode string
	Records    []string
	Sanity     string
	Seed       uint64

	Rate int

	HistDisplay bool
	JSON        bool

	Silent bool
	Color  bool

	PlotDir    string
	PlotFormat string

	Prometheus string

	Logger nameserver.Logger
	// Writer receives progress bars, os.Stderr when nil.
	Writer io.Writer

	// checker overrides the health checker, used by tests.
	checker *healthcheck.Checker
}

// Result holds everything the report is built from.
type Result struct {
	// Servers are all tested servers, including the ones excluded during qualification.
	Servers []*nameserver.Nameserver
	Records []dnsbench.TestRecord
	Results dnsbench.Results
}

func (b *Benchmark) logger() nameserver.Logger {
	if b.Logger == nil {
		return nameserver.DiscardLogger
	}
	return b.Logger
}

func (b *Benchmark) serverOptions() []nameserver.Option {
	opts := []nameserver.Option{nameserver.WithLogger(b.logger())}
	if b.Timeout > 0 {
		opts = append(opts, nameserver.WithTimeout(b.Timeout))
	}
	if b.HealthTimeout > 0 {
		opts = append(opts, nameserver.WithHealthTimeout(b.HealthTimeout))
	}
	if b.UDPSize > 0 {
		opts = append(opts, nameserver.WithExchanger(nameserver.NewUDPExchanger(b.UDPSize)))
	}
	return opts
}

func (b *Benchmark) healthChecker() (*healthcheck.Checker, error) {
	if b.checker != nil {
		return b.checker, nil
	}
	c := &healthcheck.Checker{
		Concurrency: b.Threads,
		MaxServers:  b.MaxServers,
		Logger:      b.logger(),
		Writer:      b.Writer,
		Silent:      b.Silent || b.JSON,
		Hostnames:   b.Hostnames,

		ConnectionCheckOptions: b.serverOptions(),
	}
	if b.Sanity != "" {
		checks, err := healthcheck.ReadSanityChecksFile(trimFileRef(b.Sanity))
		if err != nil {
			return nil, fmt.Errorf("failed to read sanity checks: %w", err)
		}
		c.SanityChecks = checks
	}
	return c, nil
}

func (b *Benchmark) testRecords() ([]dnsbench.TestRecord, error) {
	sources := b.Records
	if len(sources) == 0 {
		sources = defaultRecords
	}
	records, err := dnsbench.LoadTestRecords(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to load test records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no test records were provided")
	}

	var rnd *rand.Rand
	if b.Seed != 0 {
		rnd = rand.New(rand.NewPCG(b.Seed, b.Seed))
	}
	count := b.QueryCount
	if count <= 0 {
		count = dnsbench.DefaultQueryCount
	}
	return dnsbench.Select(b.SelectMode, records, count, rnd)
}

// Run qualifies nameservers and benchmarks the ones which passed. When qualification leaves no server,
// the returned error wraps healthcheck.ErrTooFewNameservers and the result still describes all servers.
func (b *Benchmark) Run(ctx context.Context) (*Result, error) {
	color.NoColor = !b.Color

	servers, err := b.nameservers()
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nameservers to test")
	}
	records, err := b.testRecords()
	if err != nil {
		return nil, err
	}
	checker, err := b.healthChecker()
	if err != nil {
		return nil, err
	}

	if !b.Silent && !b.JSON {
		printutils.NeutralFprintf(b.writer(), "Qualifying %s nameservers\n", printutils.HighlightSprint(len(servers)))
	}
	res := &Result{Servers: servers, Records: records}
	if err := checker.Qualify(ctx, servers); err != nil {
		return res, fmt.Errorf("qualification failed: %w", err)
	}

	bench := dnsbench.Benchmark{
		Servers:     servers,
		RunCount:    b.Runs,
		Concurrency: b.BenchmarkThreads,
		Rate:        b.Rate,
		Silent:      b.Silent || b.JSON,
		Writer:      b.Writer,
		Logger:      b.logger(),
	}
	if !b.Silent && !b.JSON {
		printutils.NeutralFprintf(b.writer(), "Benchmarking %s nameservers using %s test records\n",
			printutils.HighlightSprint(len(healthcheck.Enabled(servers))), printutils.HighlightSprint(len(records)))
	}
	res.Results = bench.Run(ctx, records)
	return res, nil
}

// PrintReport prints the report of the benchmark result to w.
func (b *Benchmark) PrintReport(w io.Writer, res *Result, benchmarkDuration time.Duration) error {
	return reporter.PrintReport(res.Servers, res.Results, reporter.Options{
		Writer:      w,
		JSON:        b.JSON,
		Silent:      b.Silent,
		HistDisplay: b.HistDisplay,
		PlotDir:     b.PlotDir,
		PlotFormat:  b.PlotFormat,
		Duration:    benchmarkDuration,
	})
}
