package healthcheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

const interceptionMarker = "I am not an OpenDNS resolver"

// ConnectionQuality describes the local link as seen by a handful of well known servers.
type ConnectionQuality struct {
	// Intercepted is set when queries to InterceptionCheckServer were answered by someone else.
	Intercepted bool
	// Duration is the average duration of all connection checks.
	Duration time.Duration
	// Congestion is Duration relative to ExpectedCongestionDuration.
	Congestion float64
	// Multiplier stretches health check timeouts, it is at least 1.
	Multiplier float64
}

func congestionMultiplier(congestion float64) float64 {
	if congestion <= 1 {
		return 1
	}
	return min(1+(congestion-1)*congestionOffsetMultiplier, MaxCongestionMultiplier)
}

func (c *Checker) checkServer(ip string) *nameserver.Nameserver {
	return nameserver.New(ip, c.ConnectionCheckOptions...)
}

// primary returns the current system resolver, nil when none of the servers is one.
func primary(servers []*nameserver.Nameserver) *nameserver.Nameserver {
	for _, ns := range servers {
		if ns.SystemPosition == 0 {
			return ns
		}
	}
	return nil
}

func intercepted(ns *nameserver.Nameserver) (bool, time.Duration) {
	resp, dur, err := ns.TimedRequest("TXT", "which.opendns.com.", ns.HealthTimeout)
	if err != nil || len(resp.Answer) == 0 {
		return false, dur
	}
	for _, rr := range resp.Answer {
		if strings.Contains(rr.String(), interceptionMarker) {
			return true, dur
		}
	}
	return false, dur
}

// CheckConnectionQuality measures the local link: whether queries are intercepted and how much
// slower than expected well known servers answer. The negative response check uses the system
// primary among servers, it is skipped when there is none.
func (c *Checker) CheckConnectionQuality(ctx context.Context, servers []*nameserver.Nameserver) ConnectionQuality {
	var (
		q         ConnectionQuality
		durations []float64
		dur       time.Duration
	)
	c.logger().Info("checking query interception status")
	q.Intercepted, dur = intercepted(c.checkServer(InterceptionCheckServer))
	durations = append(durations, float64(dur))

	google := c.checkServer(CongestionCheckServer)
	sys := primary(servers)
	for i := range congestionRounds {
		if ctx.Err() != nil {
			break
		}
		c.logger().Debugf("checking connection quality %d/%d", i+1, congestionRounds)
		if sys != nil {
			durations = append(durations, float64(NegativeResponse{}.Run(sys).Duration))
		}
		_, dur, _ = google.TimedRequest("A", "www.google.com.", google.HealthTimeout)
		durations = append(durations, float64(dur))
		c.wait(ctx, congestionRoundPause)
	}
	if sys != nil {
		sys.ResetErrorCounts()
	}

	mean, _ := stats.Mean(durations)
	q.Duration = time.Duration(mean)
	q.Congestion = float64(q.Duration) / float64(ExpectedCongestionDuration)
	q.Multiplier = congestionMultiplier(q.Congestion)
	c.logger().Infof("congestion level is %0.2fX (check duration: %s)", q.Congestion, q.Duration)
	return q
}

// SetTimeouts checks the connection quality and stretches health timeouts of all servers on a
// congested link. It does nothing unless more than one server is enabled and it fails with
// ErrOutgoingUDPInterception when queries are intercepted.
func (c *Checker) SetTimeouts(ctx context.Context, servers []*nameserver.Nameserver) error {
	if len(Enabled(servers)) < 2 {
		return nil
	}
	q := c.CheckConnectionQuality(ctx, servers)
	if q.Intercepted {
		return fmt.Errorf("%w: queries to %s were answered by another resolver", ErrOutgoingUDPInterception, InterceptionCheckServer)
	}
	if q.Multiplier > 1 {
		c.logger().Warnf("connection is congested, stretching health timeouts %0.2fx", q.Multiplier)
		for _, ns := range servers {
			ns.HealthTimeout = time.Duration(float64(ns.HealthTimeout) * q.Multiplier)
		}
	}
	return nil
}
