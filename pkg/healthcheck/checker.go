package healthcheck

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Checker qualifies nameservers. The zero value is usable, defaults are applied to unset fields.
type Checker struct {
	// Concurrency is the number of servers checked in parallel.
	Concurrency int
	// SanityChecks feed the answer matching probes of the full and final tiers.
	SanityChecks []SanityCheck
	// WildcardDomains are used to detect shared caches.
	WildcardDomains []string
	// TTLWait is how long to wait between storing wildcard entries and comparing them.
	TTLWait time.Duration
	// MaxServers limits how many servers survive qualification, 0 means no limit.
	MaxServers int
	// ConnectionCheckOptions configure the well known servers used to check connection quality.
	ConnectionCheckOptions []nameserver.Option
	// Hostnames enables reverse lookups of the qualified servers.
	Hostnames bool

	Logger nameserver.Logger
	// Writer receives progress bars, os.Stderr when nil.
	Writer io.Writer
	Silent bool

	sleep func(ctx context.Context, d time.Duration)
}

func (c *Checker) concurrency(items int) int {
	n := c.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	if n > items {
		n = items
	}
	return max(n, 1)
}

func (c *Checker) logger() nameserver.Logger {
	if c.Logger == nil {
		return nameserver.DiscardLogger
	}
	return c.Logger
}

func (c *Checker) sanityChecks() []SanityCheck {
	if c.SanityChecks == nil {
		return DefaultSanityChecks
	}
	return c.SanityChecks
}

func (c *Checker) wildcardDomains() []string {
	if len(c.WildcardDomains) == 0 {
		return DefaultWildcardDomains
	}
	return c.WildcardDomains
}

func (c *Checker) progress(total int, description string) *progressbar.ProgressBar {
	if c.Silent {
		return progressbar.DefaultSilent(int64(total), description)
	}
	w := c.Writer
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// RunProbes runs probes against ns in order, recording every result. The first broken probe
// disables the server and the remaining probes are skipped. It reports whether the server ended
// up disabled.
func (c *Checker) RunProbes(ns *nameserver.Nameserver, probes []Probe) bool {
	for _, p := range probes {
		out := runProbe(p, ns)
		ns.AddCheck(nameserver.ProbeResult{Name: p.Name(), Broken: out.Broken, Warning: out.Warning, Duration: out.Duration})
		if out.Warning != "" {
			ns.AddWarning(out.Warning)
		}
		if out.Broken {
			ns.Disable(fmt.Sprintf("Failed %s: %s", p.Name(), out.Warning))
		}
		if ns.Disabled() {
			break
		}
	}
	return ns.Disabled()
}

// CheckHealth runs the probe battery of the given tier against ns.
func (c *Checker) CheckHealth(ns *nameserver.Nameserver, mode Mode) bool {
	return c.RunProbes(ns, Battery(mode, c.sanityChecks()))
}

// Run checks all enabled servers concurrently. Probes of a single server always run sequentially.
// Servers not yet dispatched when ctx is done are left untouched.
func (c *Checker) Run(ctx context.Context, servers []*nameserver.Nameserver, mode Mode) {
	c.run(ctx, servers, mode, c.concurrency(len(servers)))
}

func (c *Checker) run(ctx context.Context, servers []*nameserver.Nameserver, mode Mode, concurrency int) {
	enabled := Enabled(servers)
	if len(enabled) == 0 {
		return
	}
	probes := Battery(mode, c.sanityChecks())
	bar := c.progress(len(enabled), fmt.Sprintf("Running %s health checks", mode))
	c.logger().Infof("running %s health checks on %d servers (%d threads)", mode, len(enabled), concurrency)

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, ns := range enabled {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.RunProbes(ns, probes)
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()
}

// Enabled returns servers which were not disabled, in the given order.
func Enabled(servers []*nameserver.Nameserver) []*nameserver.Nameserver {
	enabled := make([]*nameserver.Nameserver, 0, len(servers))
	for _, ns := range servers {
		if !ns.Disabled() {
			enabled = append(enabled, ns)
		}
	}
	return enabled
}

// SortByFastest orders servers by their average health check duration.
func SortByFastest(servers []*nameserver.Nameserver) []*nameserver.Nameserver {
	sorted := slices.Clone(servers)
	slices.SortStableFunc(sorted, func(a, b *nameserver.Nameserver) int {
		return cmp.Compare(a.CheckAverage(), b.CheckAverage())
	})
	return sorted
}

// SortByNearest orders servers by their fastest health check duration.
func SortByNearest(servers []*nameserver.Nameserver) []*nameserver.Nameserver {
	sorted := slices.Clone(servers)
	slices.SortStableFunc(sorted, func(a, b *nameserver.Nameserver) int {
		return cmp.Compare(a.FastestCheckDuration(), b.FastestCheckDuration())
	})
	return sorted
}

func healthyPercent(servers []*nameserver.Nameserver) float64 {
	if len(servers) == 0 {
		return 0
	}
	return float64(len(Enabled(servers))) / float64(len(servers)) * 100
}

func (c *Checker) wait(ctx context.Context, d time.Duration) {
	if c.sleep != nil {
		c.sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
