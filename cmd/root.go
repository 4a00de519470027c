package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/nsbench/nsbench/internal/sysutil"
	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/healthcheck"
	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/nsbench/nsbench/pkg/printutils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Version is set during release of project during build process.
	Version = "development"

	author = "nsbench authors"
)

// fileNoBuffer is the number of file descriptors reserved for the process itself.
const fileNoBuffer = 50

var (
	pApp = kingpin.New("nsbench", "Finds the fastest trustworthy DNS nameservers for this network.").Author(author)

	benchmark Benchmark
	logLevel  string
)

func init() {
	pApp.Flag("system", "Include nameservers configured on this system.").
		Default("false").BoolVar(&benchmark.System)

	pApp.Flag("global", "Include well known public nameservers.").
		Default("false").BoolVar(&benchmark.Global)

	pApp.Flag("max-servers", "Maximum number of nameservers which are benchmarked after qualification. 0 means no limit.").
		Default("0").IntVar(&benchmark.MaxServers)

	pApp.Flag("timeout", "Timeout of a single benchmark query.").
		Default(nameserver.DefaultTimeout.String()).DurationVar(&benchmark.Timeout)

	pApp.Flag("health-timeout", "Timeout of a single health check query.").
		Default(nameserver.DefaultHealthTimeout.String()).DurationVar(&benchmark.HealthTimeout)

	pApp.Flag("hostnames", "Resolve reverse names of the qualified nameservers. Enabled by default.").
		Default("true").BoolVar(&benchmark.Hostnames)

	pApp.Flag("edns0", "Enable EDNS0 with specified size.").Default("0").Uint16Var(&benchmark.UDPSize)

	pApp.Flag("threads", "Number of nameservers health checked in parallel.").
		Default(fmt.Sprint(healthcheck.DefaultConcurrency)).IntVar(&benchmark.Threads)

	pApp.Flag("benchmark-threads", "Number of nameservers queried in parallel for a single test record.").
		Default(fmt.Sprint(dnsbench.DefaultConcurrency)).IntVar(&benchmark.BenchmarkThreads)

	pApp.Flag("runs", "Number of test runs over all selected test records.").
		Short('r').Default(fmt.Sprint(dnsbench.DefaultRunCount)).IntVar(&benchmark.Runs)

	pApp.Flag("query-count", "Number of test records queried in a single run.").
		Short('n').Default(fmt.Sprint(dnsbench.DefaultQueryCount)).IntVar(&benchmark.QueryCount)

	pApp.Flag("select-mode", "Test record selection algorithm.").
		Default(dnsbench.DefaultSelectMode).EnumVar(&benchmark.SelectMode, dnsbench.SelectModes...)

	pApp.Flag("records", "Test records, repeatable. Either a record like 'A www.example.org', a local file referenced using @<file-path> "+
		"or a resource accessible using HTTP, in that case, the file will be downloaded and kept in-memory.").
		PlaceHolder("@data/records").StringsVar(&benchmark.Records)

	pApp.Flag("sanity", "File with sanity checks used to qualify nameservers, lines in format 'TYPE name = expected,expected'.").
		PlaceHolder("@/path/to/file").StringVar(&benchmark.Sanity)

	pApp.Flag("seed", "Seed of the test record selection, 0 means random.").
		Default("0").Uint64Var(&benchmark.Seed)

	pApp.Flag("rate-limit", "Apply a global questions / second rate limit.").
		Short('l').Default("0").IntVar(&benchmark.Rate)

	pApp.Flag("distribution", "Display distribution histogram of timings to stdout. Enabled by default.").
		Default("true").BoolVar(&benchmark.HistDisplay)

	pApp.Flag("json", "Report benchmark results as JSON.").BoolVar(&benchmark.JSON)

	pApp.Flag("silent", "Disable stdout.").Default("false").BoolVar(&benchmark.Silent)

	pApp.Flag("color", "ANSI Color output. Enabled by default.").
		Default("true").BoolVar(&benchmark.Color)

	pApp.Flag("plot", "Plot benchmark results and export them to the directory.").
		Default("").PlaceHolder("/path/to/folder").StringVar(&benchmark.PlotDir)

	pApp.Flag("plotf", "Format of graphs. Supported formats: svg, png, jpg, pdf.").
		Default("png").EnumVar(&benchmark.PlotFormat, "svg", "png", "jpg", "pdf")

	pApp.Flag("log-level", "Logging level.").
		Default("warn").EnumVar(&logLevel, "debug", "info", "warn", "error")

	pApp.Flag("prometheus", "Serve Prometheus metrics at /metrics on the given address.").
		PlaceHolder("localhost:9153").StringVar(&benchmark.Prometheus)

	pApp.Arg("servers", "Nameservers to test, either IP[:port] or a local file referenced using @<file-path> "+
		"with lines in format 'ip[,name[,tags]]'. System and well known public nameservers are tested if none is given.").
		StringsVar(&benchmark.Servers)
}

// Execute starts main logic of command.
func Execute() {
	pApp.Version(Version)
	kingpin.MustParse(pApp.Parse(os.Args[1:]))

	log.SetHandler(cli.New(os.Stderr))
	log.SetLevel(log.MustParseLevel(logLevel))
	benchmark.Logger = log.Log

	lim, err := sysutil.RlimitNoFile()
	if err != nil {
		log.WithError(err).Warn("Cannot check limit of number of files. Skipping check. Please make sure it is sufficient manually.")
	} else {
		needed := uint64(benchmark.Threads) + uint64(fileNoBuffer)
		if lim < needed {
			printutils.ErrFprintf(os.Stderr, "Current process limit for number of files is %d and insufficient for level of requested concurrency.\n", lim)
			os.Exit(1)
		}
	}

	if benchmark.Prometheus != "" {
		serveMetrics(benchmark.Prometheus)
	}

	sigsInt := make(chan os.Signal, 8)
	signal.Notify(sigsInt, syscall.SIGINT)

	defer close(sigsInt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_, ok := <-sigsInt
		if !ok {
			// standard exit based on channel close
			return
		}
		fmt.Fprintf(os.Stderr, "\nCancelling benchmark ^C, again to terminate now.\n")
		cancel()
		<-sigsInt
		os.Exit(1)
	}()

	start := time.Now()
	res, err := benchmark.Run(ctx)
	end := time.Now()

	if err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while running benchmark: %s\n", err.Error())
		if errors.Is(err, healthcheck.ErrTooFewNameservers) && res != nil {
			// still show why every server was excluded
			_ = benchmark.PrintReport(os.Stdout, res, end.Sub(start))
		}
		os.Exit(1)
	}
	if err := benchmark.PrintReport(os.Stdout, res, end.Sub(start)); err != nil {
		printutils.ErrFprintf(os.Stderr, "There was an error while printing report: %s\n", err.Error())
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to serve prometheus metrics")
		}
	}()
	log.Infof("serving prometheus metrics at http://%s/metrics", strings.TrimPrefix(addr, "http://"))
}
