package healthcheck

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	name    string
	outcome Outcome
	calls   atomic.Int32
}

func (p *fakeProbe) Name() string { return p.name }

func (p *fakeProbe) Run(*nameserver.Nameserver) Outcome {
	p.calls.Add(1)
	return p.outcome
}

func TestChecker_RunProbes_failFast(t *testing.T) {
	probes := []*fakeProbe{
		{name: "first", outcome: Outcome{Duration: time.Millisecond}},
		{name: "second", outcome: Outcome{Broken: true, Warning: "TransportTimeout", Duration: time.Second}},
		{name: "third"},
		{name: "fourth"},
	}
	battery := make([]Probe, 0, len(probes))
	for _, p := range probes {
		battery = append(battery, p)
	}
	ns := nameserver.New("192.0.2.53")

	disabled := (&Checker{}).RunProbes(ns, battery)

	assert.True(t, disabled)
	assert.Equal(t, "Failed second: TransportTimeout", ns.DisabledReason())
	assert.EqualValues(t, 1, probes[0].calls.Load())
	assert.EqualValues(t, 1, probes[1].calls.Load())
	assert.Zero(t, probes[2].calls.Load())
	assert.Zero(t, probes[3].calls.Load())
	assert.Equal(t, []nameserver.ProbeResult{
		{Name: "first", Duration: time.Millisecond},
		{Name: "second", Broken: true, Warning: "TransportTimeout", Duration: time.Second},
	}, ns.Checks())
	assert.Equal(t, []string{"TransportTimeout"}, ns.Warnings())
}

func TestChecker_RunProbes_warnings(t *testing.T) {
	battery := []Probe{
		&fakeProbe{name: "first", outcome: Outcome{Warning: "NXDOMAIN Hijacking"}},
		&fakeProbe{name: "second", outcome: Outcome{Warning: "No answer for x."}},
		&fakeProbe{name: "third"},
	}
	ns := nameserver.New("192.0.2.53")

	disabled := (&Checker{}).RunProbes(ns, battery)

	assert.False(t, disabled)
	assert.Len(t, ns.Checks(), 3)
	assert.Equal(t, []string{"NXDOMAIN Hijacking", "No answer for x."}, ns.Warnings())
}

func TestBattery(t *testing.T) {
	names := func(probes []Probe) []string {
		var n []string
		for _, p := range probes {
			n = append(n, p.Name())
		}
		return n
	}

	assert.Equal(t, []string{"a.root-servers.net."}, names(Battery(ModeFast, DefaultSanityChecks)))
	assert.Equal(t, []string{
		"LocalhostResponse", "a.root-servers.net.", "k.root-servers.net.", "a.gtld-servers.net.", "com.", "www.google.com.",
	}, names(Battery(ModeFull, DefaultSanityChecks)))
	assert.Equal(t, []string{
		"NegativeResponse", "www.paypal.com.", "www.facebook.com.", "www.wikipedia.org.", "google.com.",
	}, names(Battery(ModeFinal, DefaultSanityChecks)))

	short := DefaultSanityChecks[:2]
	assert.Equal(t, []string{"NegativeResponse"}, names(Battery(ModeFinal, short)))
	assert.Equal(t, []string{"LocalhostResponse", "a.root-servers.net.", "k.root-servers.net."}, names(Battery(ModeFull, short)))
}

func TestChecker_Run(t *testing.T) {
	var goodCalls, badCalls atomic.Int32
	servers := []*nameserver.Nameserver{
		nameserver.New("192.0.2.1", nameserver.WithExchanger(healthyExchanger(&goodCalls))),
		nameserver.New("192.0.2.2", nameserver.WithExchanger(timeoutExchanger(&badCalls))),
		nameserver.New("192.0.2.3", nameserver.WithExchanger(healthyExchanger(&goodCalls))),
	}
	servers[2].Disable("excluded by user")

	c := Checker{Concurrency: 2, Silent: true}
	c.Run(context.Background(), servers, ModeFast)

	assert.False(t, servers[0].Disabled())
	assert.Equal(t, "Failed a.root-servers.net.: TransportTimeout", servers[1].DisabledReason())
	assert.Equal(t, "excluded by user", servers[2].DisabledReason())
	assert.Empty(t, servers[2].Checks())
	assert.EqualValues(t, 1, goodCalls.Load())
	assert.EqualValues(t, 1, badCalls.Load())
}

func TestChecker_Run_cancelled(t *testing.T) {
	var calls atomic.Int32
	servers := []*nameserver.Nameserver{
		nameserver.New("192.0.2.1", nameserver.WithExchanger(healthyExchanger(&calls))),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	(&Checker{Silent: true}).Run(ctx, servers, ModeFull)

	assert.Zero(t, calls.Load())
	require.Empty(t, servers[0].Checks())
}

func TestSortByFastest(t *testing.T) {
	a, b, c := nameserver.New("192.0.2.1"), nameserver.New("192.0.2.2"), nameserver.New("192.0.2.3")
	a.AddCheck(nameserver.ProbeResult{Duration: 30 * time.Millisecond})
	b.AddCheck(nameserver.ProbeResult{Duration: 10 * time.Millisecond})
	c.AddCheck(nameserver.ProbeResult{Duration: 20 * time.Millisecond})

	assert.Equal(t, []*nameserver.Nameserver{b, c, a}, SortByFastest([]*nameserver.Nameserver{a, b, c}))
}
