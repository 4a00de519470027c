package healthcheck

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nsbench/nsbench/pkg/nameserver"
)

// cacheSlack is how many times MaxServers survive the full tier before cache collusion checks.
const cacheSlack = 2

// Qualify runs the complete qualification pipeline: a connection quality check, a fast
// availability pass, the full battery, shared cache detection and the final battery. It fails with
// ErrOutgoingUDPInterception when queries do not reach the servers and with ErrTooFewNameservers
// when no server survived.
func (c *Checker) Qualify(ctx context.Context, servers []*nameserver.Nameserver) error {
	if err := c.SetTimeouts(ctx, servers); err != nil {
		return err
	}

	concurrency := c.concurrency(len(servers))
	c.run(ctx, servers, ModeFast, concurrency)
	if pct := healthyPercent(servers); pct < MinPingablePercent {
		concurrency = SlowModeConcurrency
		c.logger().Warnf("only %0.1f%% of nameservers were available, trying again with %d threads (slow)", pct, concurrency)
		for _, ns := range servers {
			ns.ResetTestStatus()
		}
		c.run(ctx, servers, ModeFast, concurrency)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger().Infof("%d of %d servers are available", len(Enabled(servers)), len(servers))
	if c.MaxServers > 0 && len(Enabled(servers)) > c.MaxServers {
		DisableSlowestSupplementalServers(servers, TooDistantMultiplier, MaxServersToCheck)
	}

	c.run(ctx, servers, ModeFull, min(concurrency, MaxHealthConcurrency))
	if c.MaxServers > 0 && len(Enabled(servers)) > c.MaxServers {
		DisableUnwanted(servers, c.MaxServers*cacheSlack)
	}

	if len(Enabled(servers)) > 1 {
		c.CheckCacheCollusion(ctx, servers)
		if c.MaxServers > 0 {
			DisableUnwanted(servers, c.MaxServers)
		}
	}

	c.run(ctx, servers, ModeFinal, concurrency)
	RemoveGlobalWarnings(servers)
	if c.Hostnames {
		c.ResolveHostnames(ctx, servers)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(Enabled(servers)) == 0 {
		return ErrTooFewNameservers
	}
	return nil
}

// DisableSlowestSupplementalServers disables supplemental servers whose fastest check is slower
// than multiplier times the average fastest check of the best enabled servers, as well as every
// supplemental server past the first maxServers.
func DisableSlowestSupplementalServers(servers []*nameserver.Nameserver, multiplier float64, maxServers int) {
	enabled := Enabled(servers)
	if len(enabled) == 0 {
		return
	}
	best := SortByFastest(enabled)
	best = best[:min(len(best), bestServersCount)]
	var total time.Duration
	for _, ns := range best {
		total += ns.FastestCheckDuration()
	}
	cutoff := time.Duration(float64(total) / float64(len(best)) * multiplier)

	idx := 0
	for _, ns := range enabled {
		if isPreferred(ns) {
			continue
		}
		switch {
		case ns.FastestCheckDuration() > cutoff:
			ns.Disable(fmt.Sprintf("Slower than %s cutoff", cutoff.Round(time.Microsecond)))
		case idx >= maxServers:
			ns.Disable(fmt.Sprintf("More than %d supplemental servers", maxServers))
		}
		idx++
	}
}

func isPreferred(ns *nameserver.Nameserver) bool {
	return ns.IsPrimary || ns.IsInternal || ns.IsCustom
}

// DisableUnwanted keeps at most target enabled servers. Preferred servers (primary, system and
// user specified ones) are always kept, the remaining slots are split between the nearest and the
// fastest of the other servers.
func DisableUnwanted(servers []*nameserver.Nameserver, target int) {
	var preferred, supplemental []*nameserver.Nameserver
	for _, ns := range Enabled(servers) {
		if isPreferred(ns) {
			preferred = append(preferred, ns)
		} else {
			supplemental = append(supplemental, ns)
		}
	}
	needed := target - len(preferred)
	if needed < 1 || len(supplemental) == 0 {
		return
	}
	nearestNeeded := needed / 2

	keep := make([]*nameserver.Nameserver, 0, needed)
	for _, ns := range SortByNearest(supplemental) {
		if len(keep) >= nearestNeeded {
			break
		}
		keep = append(keep, ns)
	}
	for _, ns := range SortByFastest(supplemental) {
		if len(keep) >= needed {
			break
		}
		if !slices.Contains(keep, ns) {
			keep = append(keep, ns)
		}
	}

	for _, ns := range supplemental {
		if !slices.Contains(keep, ns) {
			ns.Disable("Not among the nearest or fastest servers")
		}
	}
}

// RemoveGlobalWarnings drops warnings reported by every enabled server, they are most likely caused
// by the local network rather than the servers.
func RemoveGlobalWarnings(servers []*nameserver.Nameserver) {
	enabled := Enabled(servers)
	if len(enabled) < 2 {
		return
	}
	seen := make(map[string]int)
	for _, ns := range enabled {
		for _, w := range ns.Warnings() {
			seen[w]++
		}
	}
	for w, count := range seen {
		if count == len(enabled) {
			for _, ns := range enabled {
				ns.RemoveWarning(w)
			}
		}
	}
}
