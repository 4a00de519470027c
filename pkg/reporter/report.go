package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

const (
	// DefaultPlotFormat is the default format of exported graphs.
	DefaultPlotFormat = "png"
	// DefaultHistPrecision is the number of significant figures kept by the latency histogram.
	DefaultHistPrecision = 1
)

// Options configures how the report is printed.
type Options struct {
	// Writer is where the report is written to, os.Stdout if not set.
	Writer io.Writer
	// JSON prints the report as JSON instead of tables.
	JSON bool
	// Silent disables printing, graphs are still exported.
	Silent bool
	// HistDisplay prints the latency distribution of all benchmarked servers.
	HistDisplay bool
	// PlotDir is a directory where graphs are exported to, no graphs are exported if empty.
	PlotDir string
	// PlotFormat is a format of exported graphs, svg, png, jpg or pdf.
	PlotFormat string
	// Duration is the time taken by the benchmark.
	Duration time.Duration
}

type reportParameters struct {
	outputWriter      io.Writer
	summaries         []Summary
	fastest           []ServerDuration
	disabled          []*nameserver.Nameserver
	recommended       []*nameserver.Nameserver
	comparison        Comparison
	hist              *hdrhistogram.Histogram
	histDisplay       bool
	benchmarkDuration time.Duration
}

type reportPrinter interface {
	print(params reportParameters) error
}

// PrintReport prints formatted benchmark results of the servers and exports graphs if configured.
// If there is a fatal error while printing report, an error is returned.
func PrintReport(servers []*nameserver.Nameserver, results dnsbench.Results, opts Options) error {
	agg := New(servers, results)
	summaries := agg.Summaries()

	if len(opts.PlotDir) != 0 {
		if err := directoryExists(opts.PlotDir); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}

		now := time.Now().Format(time.RFC3339)
		dir := fmt.Sprintf("%s/graphs-%s", opts.PlotDir, now)
		if err := os.Mkdir(dir, os.ModePerm); err != nil {
			return fmt.Errorf("unable to plot results: %w", err)
		}
		durations := agg.Durations()
		var all []time.Duration
		for _, d := range durations {
			all = append(all, d...)
		}
		plotHistogramLatency(fileName(opts, dir, "latency-histogram"), all)
		plotBoxPlotLatency(fileName(opts, dir, "latency-boxplot"), summaries, durations)
		plotMeanDurations(fileName(opts, dir, "mean-barchart"), summaries)
		plotRunAverages(fileName(opts, dir, "runs-lineplot"), summaries)
	}

	if opts.Silent {
		return nil
	}

	var disabled []*nameserver.Nameserver
	for _, ns := range servers {
		if ns.Disabled() {
			disabled = append(disabled, ns)
		}
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	params := reportParameters{
		outputWriter:      w,
		summaries:         summaries,
		fastest:           agg.FastestNameServerResult(),
		disabled:          disabled,
		recommended:       agg.Recommended(),
		comparison:        agg.Compare(),
		hist:              histogram(results),
		histDisplay:       opts.HistDisplay,
		benchmarkDuration: opts.Duration,
	}
	return printer(opts).print(params)
}

// histogram collects durations of all queries of all servers.
func histogram(results dnsbench.Results) *hdrhistogram.Histogram {
	var slowest time.Duration
	for _, sr := range results {
		if _, s, ok := fastestAndSlowest(sr); ok && s > slowest {
			slowest = s
		}
	}
	hist := hdrhistogram.New(0, max(slowest.Nanoseconds(), int64(time.Millisecond)), DefaultHistPrecision)
	for _, sr := range results {
		for _, run := range sr.Runs {
			for _, q := range run {
				_ = hist.RecordValue(q.Duration.Nanoseconds())
			}
		}
	}
	return hist
}

func directoryExists(plotDir string) error {
	stat, err := os.Stat(plotDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' path does not point to an existing directory", plotDir)
		}
		return err
	} else if !stat.IsDir() {
		return fmt.Errorf("'%s' is not a path to a directory", plotDir)
	}
	return nil
}

func printer(opts Options) reportPrinter {
	switch {
	case opts.JSON:
		return &jsonReporter{}
	default:
		return &standardReporter{}
	}
}

func fileName(opts Options, dir, name string) string {
	format := opts.PlotFormat
	if format == "" {
		format = DefaultPlotFormat
	}
	return dir + "/" + name + "." + format
}
