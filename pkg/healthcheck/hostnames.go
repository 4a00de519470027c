package healthcheck

import (
	"context"
	"slices"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"golang.org/x/sync/errgroup"
)

func (c *Checker) hostnameResolver(servers []*nameserver.Nameserver) *nameserver.Nameserver {
	if sys := primary(servers); sys != nil {
		return nameserver.New(sys.IP(), append(slices.Clone(c.ConnectionCheckOptions), nameserver.WithPort(sys.Port))...)
	}
	return c.checkServer(CongestionCheckServer)
}

// ResolveHostnames looks up reverse names of the enabled servers. Queries go to a fresh instance of
// the system primary, CongestionCheckServer is used when none of servers is the system primary.
// Servers without a PTR record keep their IP as hostname.
func (c *Checker) ResolveHostnames(ctx context.Context, servers []*nameserver.Nameserver) {
	enabled := Enabled(servers)
	if len(enabled) == 0 {
		return
	}
	resolver := c.hostnameResolver(servers)
	c.logger().Debugf("resolving hostnames of %d servers using %s", len(enabled), resolver)

	var g errgroup.Group
	g.SetLimit(c.concurrency(len(enabled)))
	for _, ns := range enabled {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			hostname, _, err := ReverseLookup(resolver, ns.IP())
			if err != nil {
				c.logger().Debugf("failed to resolve hostname of %s: %v", ns, err)
				return nil
			}
			if hostname != "" {
				ns.SetHostname(hostname)
			}
			return nil
		})
	}
	_ = g.Wait()
}
