package reporter

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var barColors = append([]color.Color{
	color.RGBA{R: 122, G: 195, B: 106, A: 255},
	color.RGBA{R: 241, G: 90, B: 96, A: 255},
	color.RGBA{R: 90, G: 155, B: 212, A: 255},
	color.RGBA{R: 250, G: 167, B: 91, A: 255},
	color.RGBA{R: 158, G: 103, B: 171, A: 255},
	color.RGBA{R: 206, G: 112, B: 88, A: 255},
	color.RGBA{R: 215, G: 127, B: 180, A: 255},
}, plotutil.DarkColors...)

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func plotHistogramLatency(file string, times []time.Duration) {
	if len(times) == 0 {
		// nothing to plot
		return
	}
	var values plotter.Values
	for _, v := range times {
		values = append(values, toMillis(v))
	}
	p := plot.New()
	p.Title.Text = "Latencies distribution"

	hist, err := plotter.NewHist(values, numBins(values))
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "Latencies (ms)"
	p.X.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	p.Y.Label.Text = "Number of requests"
	p.Y.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	hist.FillColor = color.RGBA{R: 175, G: 238, B: 238, A: 255}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

// numBins calculates number of bins for histogram.
func numBins(values plotter.Values) int {
	n := float64(len(values))

	// small dataset
	if n < 100 {
		sqrt := math.Sqrt(n)
		return max(int(math.Min(15, sqrt)), 1)
	}

	// medium dataset - use Rice's rule
	if n < 1000 {
		rice := 2 * math.Cbrt(n)
		return int(math.Min(30, rice))
	}

	// large dataset - use Doane's rule
	skewness := stat.Skew(values, nil)

	// standard error of skewness
	sigmaG := math.Sqrt(6 * (n - 2) / ((n + 1) * (n + 3)))
	doane := 1 + math.Log2(n) + math.Log2(1+math.Abs(skewness)/sigmaG)
	return int(math.Min(50, doane))
}

func plotBoxPlotLatency(file string, summaries []Summary, durations map[*nameserver.Nameserver][]time.Duration) {
	var names []string
	p := plot.New()
	p.Title.Text = "Latencies distribution"
	p.Y.Label.Text = "Latencies (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}

	for _, s := range summaries {
		if !s.Scored() || len(durations[s.Server]) == 0 {
			continue
		}
		var values plotter.Values
		for _, d := range durations[s.Server] {
			values = append(values, toMillis(d))
		}
		boxplot, err := plotter.NewBoxPlot(vg.Length(40), float64(len(names)), values)
		if err != nil {
			panic(err)
		}
		boxplot.FillColor = color.RGBA{R: 127, G: 188, B: 165, A: 255}
		p.Add(boxplot)
		names = append(names, s.Server.Name)
	}
	if len(names) == 0 {
		// nothing to plot
		return
	}
	p.NominalX(names...)

	if err := p.Save(vg.Length(max(6, len(names)))*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

func plotMeanDurations(file string, summaries []Summary) {
	p := plot.New()
	p.Title.Text = "Mean response duration"
	p.NominalX("Nameservers")

	width := vg.Points(30)
	var scored []Summary
	for _, s := range summaries {
		if s.Scored() {
			scored = append(scored, s)
		}
	}
	if len(scored) == 0 {
		// nothing to plot
		return
	}

	off := -vg.Length(len(scored)/2) * width
	for c, s := range scored {
		bar, err := plotter.NewBarChart(plotter.Values{toMillis(s.OverallAverage)}, width)
		if err != nil {
			panic(err)
		}
		p.Legend.Add(s.Server.Name, bar)
		bar.Color = barColors[c%len(barColors)]
		bar.Offset = off
		p.Add(bar)
		off += width
	}

	p.Y.Label.Text = "Mean duration (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

func plotRunAverages(file string, summaries []Summary) {
	p := plot.New()
	p.Title.Text = "Average duration per run"
	p.X.Label.Text = "Run"
	p.X.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}
	p.Y.Label.Text = "Latency (ms)"

	plotted := 0
	for _, s := range summaries {
		if !s.Scored() || len(s.RunAverages) == 0 {
			continue
		}
		var values plotter.XYs
		for run, avg := range s.RunAverages {
			values = append(values, plotter.XY{X: float64(run + 1), Y: toMillis(avg)})
		}
		plotLine(p, values, plotutil.DarkColors[plotted%len(plotutil.DarkColors)], s.Server.Name)
		plotted++
	}
	if plotted == 0 {
		// nothing to plot
		return
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

func plotLine(p *plot.Plot, values plotter.XYs, color color.Color, name string) {
	l, err := plotter.NewLine(values)
	if err != nil {
		panic(err)
	}
	l.Color = color
	p.Add(l)
	p.Legend.Add(name, l)
	scatter, err := plotter.NewScatter(values)
	if err != nil {
		panic(err)
	}
	scatter.Color = color
	scatter.Shape = draw.CircleGlyph{}
	p.Add(scatter)
}
