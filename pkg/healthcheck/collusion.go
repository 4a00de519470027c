package healthcheck

import (
	"context"
	"fmt"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"golang.org/x/sync/errgroup"
)

// SharedPair is a pair of servers found to answer from the same cache.
type SharedPair struct {
	Server *nameserver.Nameserver
	Other  *nameserver.Nameserver
}

// StoreWildcardCaches stores wildcard entries on every enabled server. It returns once all stores
// finished, so the entries are visible to any comparison started afterwards.
func (c *Checker) StoreWildcardCaches(ctx context.Context, servers []*nameserver.Nameserver) {
	enabled := Enabled(servers)
	if len(enabled) == 0 {
		return
	}
	domains := c.wildcardDomains()
	bar := c.progress(len(enabled), "Storing wildcard caches")

	var g errgroup.Group
	g.SetLimit(c.concurrency(len(enabled)))
	for _, ns := range enabled {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := StoreWildcardCache(ns, domains); err != nil {
				c.logger().Warnf("%s: %v", ns, err)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()
}

// CompareSharedCaches compares every ordered pair of enabled servers, fastest first, and returns
// the pairs sharing a cache in a deterministic order.
func (c *Checker) CompareSharedCaches(ctx context.Context, servers []*nameserver.Nameserver) []SharedPair {
	good := SortByFastest(Enabled(servers))
	var pairs []SharedPair
	for _, ns := range good {
		for _, other := range good {
			if ns != other {
				pairs = append(pairs, SharedPair{Server: other, Other: ns})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	shared := make([]bool, len(pairs))
	bar := c.progress(len(pairs), "Running cache-sharing checks")

	var g errgroup.Group
	g.SetLimit(c.concurrency(len(pairs)))
	for i, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			shared[i] = SharesCache(p.Server, p.Other)
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	var found []SharedPair
	for i, p := range pairs {
		if shared[i] {
			found = append(found, p)
		}
	}
	return found
}

// CheckCacheCollusion finds servers sharing a cache and disables the replica which should not be
// benchmarked.
func (c *Checker) CheckCacheCollusion(ctx context.Context, servers []*nameserver.Nameserver) {
	c.StoreWildcardCaches(ctx, servers)

	ttlWait := c.TTLWait
	if ttlWait == 0 {
		ttlWait = DefaultTTLWait
	}
	c.logger().Infof("waiting %s for TTLs to decrement", ttlWait)
	c.wait(ctx, ttlWait)
	if ctx.Err() != nil {
		return
	}

	for _, p := range c.CompareSharedCaches(ctx, servers) {
		c.resolveReplicas(p.Server, p.Other)
	}
}

// resolveReplicas links the servers and disables the one which should not be kept. Usually that is
// the slower one, unless it is the current primary system resolver, or it is a preferred provider
// while the faster one is not.
func (c *Checker) resolveReplicas(ns, sharedNS *nameserver.Nameserver) {
	ns.AddSharedWith(sharedNS)
	sharedNS.AddSharedWith(ns)
	if ns.Disabled() || sharedNS.Disabled() {
		return
	}

	slower, faster := sharedNS, ns
	if ns.CheckAverage() > sharedNS.CheckAverage() {
		slower, faster = ns, sharedNS
	}

	switch {
	case slower.SystemPosition == 0:
		faster.Disable("Shares-cache with current primary DNS server")
		slower.AddWarning(fmt.Sprintf("Replica of %s", faster.IP()))
	case slower.IsPrimary && !faster.IsPrimary:
		faster.Disable(fmt.Sprintf("Replica of %s [%s]", slower.Name, slower.IP()))
		slower.AddWarning(fmt.Sprintf("Replica of %s [%s]", faster.Name, faster.IP()))
	default:
		c.logger().Infof("disabling %s, slower replica of %s by %s", slower, faster, slower.CheckAverage()-faster.CheckAverage())
		slower.Disable(fmt.Sprintf("Slower replica of %s [%s]", faster.Name, faster.IP()))
		faster.AddWarning(fmt.Sprintf("Replica of %s [%s]", slower.Name, slower.IP()))
	}
}
