package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/nsbench/nsbench/pkg/printutils"
	"github.com/olekukonko/tablewriter"
)

const barWidth = 43

type standardReporter struct{}

func (s *standardReporter) print(params reportParameters) error {
	w := params.outputWriter

	printMeanDurations(w, params.summaries)
	printFastestResponses(w, params.fastest)
	printSummaryTable(w, params.summaries)
	printDisabled(w, params.disabled)
	printRecommended(w, params.recommended, params.comparison)

	if params.benchmarkDuration > 0 {
		printutils.NeutralFprintf(w, "\nTime taken for tests:\t%s\n",
			printutils.HighlightSprint(roundDuration(params.benchmarkDuration)))
		printutils.NeutralFprintf(w, "Questions per second:\t%s\n",
			printutils.HighlightSprintf("%0.1f", float64(params.hist.TotalCount())/params.benchmarkDuration.Seconds()))
	}

	if tc := params.hist.TotalCount(); tc > 0 {
		printutils.NeutralFprintf(w, "DNS timings, %s datapoints\n", printutils.HighlightSprint(tc))
		printutils.NeutralFprintf(w, "\t min:\t\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Min()))))
		printutils.NeutralFprintf(w, "\t mean:\t\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Mean()))))
		printutils.NeutralFprintf(w, "\t [+/-sd]:\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.StdDev()))))
		printutils.NeutralFprintf(w, "\t max:\t\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.Max()))))
		printutils.NeutralFprintf(w, "\t p90:\t\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.ValueAtQuantile(90)))))
		printutils.NeutralFprintf(w, "\t p50:\t\t%s\n", printutils.HighlightSprint(roundDuration(time.Duration(params.hist.ValueAtQuantile(50)))))

		if params.histDisplay && tc > 1 {
			printutils.NeutralFprintf(w, "\nDNS distribution, %s datapoints\n", printutils.HighlightSprint(tc))
			printBars(w, params.hist.Distribution())
		}
	}
	return nil
}

func printMeanDurations(w io.Writer, summaries []Summary) {
	var slowest time.Duration
	for _, s := range summaries {
		if s.Scored() && s.OverallAverage > slowest {
			slowest = s.OverallAverage
		}
	}
	var lines [][]string
	for _, s := range summaries {
		if !s.Scored() {
			continue
		}
		lines = append(lines, []string{
			s.Server.Name,
			makeBar(int64(s.OverallAverage), int64(slowest)),
			roundDuration(s.OverallAverage).String(),
		})
	}
	if len(lines) == 0 {
		return
	}
	printutils.NeutralFprintf(w, "\nMean response duration:\n")
	printTable(w, []string{"Nameserver", "", "Mean"}, lines)
}

func printFastestResponses(w io.Writer, fastest []ServerDuration) {
	if len(fastest) == 0 {
		return
	}
	var slowest time.Duration
	for _, f := range fastest {
		slowest = max(slowest, f.Duration)
	}
	lines := make([][]string, 0, len(fastest))
	for _, f := range fastest {
		lines = append(lines, []string{
			f.Server.Name,
			makeBar(int64(f.Duration), int64(slowest)),
			roundDuration(f.Duration).String(),
		})
	}
	printutils.NeutralFprintf(w, "\nFastest individual response:\n")
	printTable(w, []string{"Nameserver", "", "Fastest"}, lines)
}

func printSummaryTable(w io.Writer, summaries []Summary) {
	var lines [][]string
	for _, s := range summaries {
		if !s.Scored() {
			continue
		}
		diff := "-"
		if s.DiffPercent != nil {
			diff = fmt.Sprintf("%0.1f%%", *s.DiffPercent)
		}
		lines = append(lines, []string{
			strconv.Itoa(s.Position + 1),
			s.Server.Name,
			s.Server.IP(),
			roundDuration(s.OverallAverage).String(),
			roundDuration(s.Min).String(),
			roundDuration(s.Max).String(),
			roundDuration(s.P50).String(),
			roundDuration(s.P90).String(),
			strconv.Itoa(s.FailureCount),
			strconv.Itoa(s.NXCount),
			diff,
			strings.Join(s.Server.Notes(), " "),
		})
	}
	if len(lines) == 0 {
		printutils.ErrFprintf(w, "\nNo nameserver was benchmarked.\n")
		return
	}
	printutils.NeutralFprintf(w, "\nSummary:\n")
	printTable(w, []string{"Pos", "Nameserver", "IP", "Avg", "Min", "Max", "p50", "p90", "Failures", "NX", "Diff", "Notes"}, lines)
}

func printDisabled(w io.Writer, disabled []*nameserver.Nameserver) {
	if len(disabled) == 0 {
		return
	}
	lines := make([][]string, 0, len(disabled))
	for _, ns := range disabled {
		lines = append(lines, []string{ns.Name, ns.IP(), ns.DisabledReason()})
	}
	printutils.WarnFprintf(w, "\nExcluded nameservers:\n")
	printTable(w, []string{"Nameserver", "IP", "Reason"}, lines)
}

func printRecommended(w io.Writer, recommended []*nameserver.Nameserver, c Comparison) {
	if len(recommended) == 0 {
		return
	}
	printutils.NeutralFprintf(w, "\nRecommended configuration (fastest + nearest):\n")
	for i, ns := range recommended {
		if h := ns.Hostname(); h != ns.IP() {
			printutils.SuccessFprintf(w, "\tnameserver %s\t# %s (%s)\n", ns.IP(), ns.Name, h)
		} else {
			printutils.SuccessFprintf(w, "\tnameserver %s\t# %s\n", ns.IP(), ns.Name)
		}
		if i == 0 && c.Reference != nil {
			printutils.NeutralFprintf(w, "\t%s is %s %s than %s\n", ns.Name,
				printutils.HighlightSprint(c.Title), strings.ToLower(c.Subtitle), c.Reference.Name)
		}
	}
	if c.Reference == nil {
		printutils.NeutralFprintf(w, "%s: %s\n", c.Title, c.Subtitle)
	}
}

func printTable(w io.Writer, header []string, lines [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(lines)
	table.Render()
}

func printBars(w io.Writer, bars []hdrhistogram.Bar) {
	counts := make([]int64, 0, len(bars))
	lines := make([][]string, 0, len(bars))
	added := false
	var max int64

	for _, b := range bars {
		if b.Count == 0 && !added {
			// trim the start
			continue
		}
		if b.Count > max {
			max = b.Count
		}

		added = true

		line := make([]string, 3)
		lines = append(lines, line)
		counts = append(counts, b.Count)

		line[0] = roundDuration(time.Duration(b.To/2 + b.From/2)).String()
		line[2] = strconv.FormatInt(b.Count, 10)
	}

	for i, l := range lines {
		l[1] = makeBar(counts[i], max)
	}

	printTable(w, []string{"Latency", "", "Count"}, lines)
}

func makeBar(c int64, max int64) string {
	if c <= 0 || max <= 0 {
		return ""
	}
	t := int((barWidth * float64(c) / float64(max)) + 0.5)
	return strings.Repeat(printutils.HighlightSprint("▄"), t)
}
