package reporter

import (
	"encoding/json"
	"math"
	"time"
)

type jsonReporter struct{}

type histogramPoint struct {
	LatencyMs int64 `json:"latencyMs"`
	Count     int64 `json:"count"`
}

type jsonServer struct {
	Name             string    `json:"name"`
	IP               string    `json:"ip"`
	Hostname         string    `json:"hostname,omitempty"`
	Position         int       `json:"position"`
	Disabled         bool      `json:"disabled"`
	DisabledReason   string    `json:"disabledReason,omitempty"`
	Warnings         []string  `json:"warnings,omitempty"`
	Reference        bool      `json:"reference,omitempty"`
	DiffPercent      *float64  `json:"diffPercent,omitempty"`
	OverallAverageMs float64   `json:"overallAverageMs"`
	RunAveragesMs    []float64 `json:"runAveragesMs,omitempty"`
	MinMs            float64   `json:"minMs"`
	MaxMs            float64   `json:"maxMs"`
	P50Ms            float64   `json:"p50Ms"`
	P90Ms            float64   `json:"p90Ms"`
	FailureCount     int       `json:"failureCount"`
	NXCount          int       `json:"nxCount"`
	TotalCount       int       `json:"totalCount"`
	Errors           []string  `json:"errors,omitempty"`
}

type jsonComparison struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Best      string `json:"best,omitempty"`
	Reference string `json:"reference,omitempty"`
}

type jsonResult struct {
	Servers                  []jsonServer     `json:"servers"`
	Recommended              []string         `json:"recommended"`
	Comparison               jsonComparison   `json:"comparison"`
	BenchmarkDurationSeconds float64          `json:"benchmarkDurationSeconds"`
	LatencyDistribution      []histogramPoint `json:"latencyDistribution,omitempty"`
}

func (s *jsonReporter) print(params reportParameters) error {
	var res []histogramPoint

	if params.histDisplay {
		for _, d := range params.hist.Distribution() {
			point := histogramPoint{
				LatencyMs: roundDuration(time.Duration(d.To/2 + d.From/2)).Milliseconds(),
				Count:     d.Count,
			}
			if n := len(res); n > 0 && res[n-1].LatencyMs == point.LatencyMs {
				res[n-1].Count += point.Count
				continue
			}
			res = append(res, point)
		}
	}

	result := jsonResult{
		Servers:                  make([]jsonServer, 0, len(params.summaries)),
		Recommended:              make([]string, 0, len(params.recommended)),
		BenchmarkDurationSeconds: roundDuration(params.benchmarkDuration).Seconds(),
		LatencyDistribution:      res,
		Comparison: jsonComparison{
			Title:    params.comparison.Title,
			Subtitle: params.comparison.Subtitle,
		},
	}
	if params.comparison.Best != nil {
		result.Comparison.Best = params.comparison.Best.IP()
	}
	if params.comparison.Reference != nil {
		result.Comparison.Reference = params.comparison.Reference.IP()
	}
	for _, ns := range params.recommended {
		result.Recommended = append(result.Recommended, ns.IP())
	}

	for _, sm := range params.summaries {
		js := jsonServer{
			Name:             sm.Server.Name,
			IP:               sm.Server.IP(),
			Position:         sm.Position,
			Disabled:         sm.Server.Disabled(),
			DisabledReason:   sm.Server.DisabledReason(),
			Warnings:         sm.Server.Warnings(),
			Reference:        sm.IsReference,
			OverallAverageMs: millis(sm.OverallAverage),
			MinMs:            millis(sm.Min),
			MaxMs:            millis(sm.Max),
			P50Ms:            millis(sm.P50),
			P90Ms:            millis(sm.P90),
			FailureCount:     sm.FailureCount,
			NXCount:          sm.NXCount,
			TotalCount:       sm.TotalCount,
			Errors:           sm.Server.Errors(),
		}
		if h := sm.Server.Hostname(); h != sm.Server.IP() {
			js.Hostname = h
		}
		if sm.DiffPercent != nil {
			diff := math.Round(*sm.DiffPercent*100) / 100
			js.DiffPercent = &diff
		}
		for _, avg := range sm.RunAverages {
			js.RunAveragesMs = append(js.RunAveragesMs, millis(avg))
		}
		result.Servers = append(result.Servers, js)
	}

	return json.NewEncoder(params.outputWriter).Encode(result)
}

// millis converts d to milliseconds rounded to two decimal places.
func millis(d time.Duration) float64 {
	return math.Round(toMillis(d)*100) / 100
}
