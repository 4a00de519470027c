package reporter

import (
	"fmt"
	"slices"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

// MinRelevantCount is the number of queries per run the reference server needs for a meaningful comparison.
const MinRelevantCount = 50

// Summary describes a single server in reports. Servers which were not benchmarked have Position -1
// and no scores.
type Summary struct {
	Server   *nameserver.Nameserver
	Position int

	IsReference bool
	// DiffPercent is how much faster the server is than the reference, nil for the reference itself
	// and for servers without scores.
	DiffPercent *float64

	OverallAverage time.Duration
	RunAverages    []time.Duration
	Min            time.Duration
	Max            time.Duration
	P50            time.Duration
	P90            time.Duration
	FailureCount   int
	NXCount        int
	TotalCount     int
}

// Scored reports whether the server has benchmark scores.
func (s Summary) Scored() bool {
	return s.Position >= 0
}

// Summaries describes every server, benchmarked ones first ordered by overall average.
func (a *Aggregator) Summaries() []Summary {
	records := a.ComputeAverages()
	durations := a.Durations()
	reference, hasReference := a.Reference()

	var refAverage time.Duration
	summaries := make([]Summary, 0, len(a.Servers))
	scored := make(map[*nameserver.Nameserver]bool, len(records))
	for pos, r := range records {
		s := Summary{
			Server:         r.Server,
			Position:       pos,
			OverallAverage: r.OverallAverage,
			RunAverages:    r.RunAverages,
			Min:            r.Fastest,
			Max:            r.Slowest,
			FailureCount:   r.FailureCount,
			NXCount:        r.NXCount,
			TotalCount:     r.TotalCount,
		}
		s.P50, s.P90 = percentiles(durations[r.Server])
		if hasReference && r.Server == reference {
			s.IsReference = true
			refAverage = r.OverallAverage
		}
		scored[r.Server] = true
		summaries = append(summaries, s)
	}
	for i := range summaries {
		if hasReference && !summaries[i].IsReference {
			diff := DiffPercent(refAverage, summaries[i].OverallAverage)
			summaries[i].DiffPercent = &diff
		}
	}

	for _, ns := range a.Servers {
		if !scored[ns] {
			summaries = append(summaries, Summary{Server: ns, Position: -1})
		}
	}
	return summaries
}

func percentiles(durations []time.Duration) (p50, p90 time.Duration) {
	if len(durations) == 0 {
		return 0, 0
	}
	data := make(stats.Float64Data, 0, len(durations))
	for _, d := range durations {
		data = append(data, float64(d))
	}
	median, _ := stats.Percentile(data, 50)
	ninety, _ := stats.Percentile(data, 90)
	return time.Duration(median), time.Duration(ninety)
}

// Comparison is the headline comparing the best server against the reference.
type Comparison struct {
	Title    string
	Subtitle string
	Best     *nameserver.Nameserver
	// Reference is nil when there was no server to compare against.
	Reference *nameserver.Nameserver
}

// Compare builds the headline comparing the best server against the reference. Percentages are only shown
// when the reference answered at least MinRelevantCount queries per run.
func (a *Aggregator) Compare() Comparison {
	c := Comparison{Title: "Undecided", Subtitle: "Not enough servers to compare."}
	best, ok := a.BestOverallNameServer()
	if !ok {
		return c
	}
	c.Best = best

	summaries := a.Summaries()
	idx := slices.IndexFunc(summaries, func(s Summary) bool { return s.IsReference })
	if idx < 0 || summaries[idx].Server == best {
		return c
	}
	ref := summaries[idx]
	if ref.TotalCount < MinRelevantCount {
		c.Subtitle = fmt.Sprintf("Too few tests (needs %d)", MinRelevantCount)
		return c
	}
	c.Reference = ref.Server
	for _, s := range summaries {
		if s.Server == best && s.DiffPercent != nil {
			c.Title = fmt.Sprintf("%0.1f%%", *s.DiffPercent)
			c.Subtitle = "Faster"
		}
	}
	return c
}
