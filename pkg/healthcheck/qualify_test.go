package healthcheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSanityChecks = []SanityCheck{
	{RecordType: "A", Name: "www.example.org.", Expected: []string{"192.0.2.10"}},
}

func TestChecker_Qualify(t *testing.T) {
	clock := newFakeClock()
	good := nameserver.New("192.0.2.1", nameserver.WithClock(clock.Now), nameserver.WithExchanger(healthyExchanger(nil)))
	bad := nameserver.New("192.0.2.2", nameserver.WithClock(clock.Now), nameserver.WithExchanger(timeoutExchanger(nil)))

	c := Checker{Silent: true, SanityChecks: testSanityChecks, ConnectionCheckOptions: quietConnection, sleep: clock.Sleep}
	err := c.Qualify(context.Background(), []*nameserver.Nameserver{good, bad})

	require.NoError(t, err)
	assert.False(t, good.Disabled())
	assert.Empty(t, good.Warnings())
	assert.Equal(t, "Failed a.root-servers.net.: TransportTimeout", bad.DisabledReason())

	var names []string
	for _, c := range good.Checks() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a.root-servers.net.", "LocalhostResponse", "www.example.org.", "NegativeResponse"}, names)
}

func TestChecker_Qualify_tooFew(t *testing.T) {
	servers := []*nameserver.Nameserver{
		nameserver.New("192.0.2.1", nameserver.WithExchanger(timeoutExchanger(nil))),
		nameserver.New("192.0.2.2", nameserver.WithExchanger(timeoutExchanger(nil))),
	}

	handler := memory.New()
	c := Checker{
		Silent:                 true,
		SanityChecks:           testSanityChecks,
		Concurrency:            20,
		ConnectionCheckOptions: quietConnection,
		Logger:                 &log.Logger{Handler: handler, Level: log.InfoLevel},
		sleep:                  newFakeClock().Sleep,
	}
	err := c.Qualify(context.Background(), servers)

	assert.True(t, errors.Is(err, ErrTooFewNameservers))
	assert.Equal(t, 20, c.Concurrency, "slow mode must not change the checker")
	assert.Contains(t, messages(handler), "only 0.0% of nameservers were available, trying again with 6 threads (slow)")
	for _, ns := range servers {
		assert.True(t, ns.Disabled())
		assert.Len(t, ns.Checks(), 1)
	}
}

func TestChecker_Qualify_maxServers(t *testing.T) {
	clock := newFakeClock()
	servers := make([]*nameserver.Nameserver, 0, 4)
	for _, ip := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.3", "192.0.2.4"} {
		servers = append(servers, nameserver.New(ip, nameserver.WithClock(clock.Now), nameserver.WithExchanger(healthyExchanger(nil))))
	}

	c := Checker{Silent: true, SanityChecks: testSanityChecks, MaxServers: 2, ConnectionCheckOptions: quietConnection, sleep: clock.Sleep}
	err := c.Qualify(context.Background(), servers)

	require.NoError(t, err)
	assert.NotEmpty(t, Enabled(servers))
	assert.LessOrEqual(t, len(Enabled(servers)), 2)
}

func TestDisableSlowestSupplementalServers(t *testing.T) {
	withCheck := func(ip string, d time.Duration) *nameserver.Nameserver {
		ns := nameserver.New(ip)
		ns.AddCheck(nameserver.ProbeResult{Duration: d})
		return ns
	}
	preferred := withCheck("192.0.2.100", 20*time.Millisecond)
	preferred.IsCustom = true
	a := withCheck("192.0.2.1", 10*time.Millisecond)
	b := withCheck("192.0.2.2", 12*time.Millisecond)
	c := withCheck("192.0.2.3", 14*time.Millisecond)
	slow := withCheck("192.0.2.4", 200*time.Millisecond)
	broken := withCheck("192.0.2.5", time.Millisecond)
	broken.Disable("broken")

	DisableSlowestSupplementalServers([]*nameserver.Nameserver{preferred, a, b, c, slow, broken}, 2, 2)

	assert.False(t, preferred.Disabled())
	assert.False(t, a.Disabled())
	assert.False(t, b.Disabled())
	assert.Equal(t, "More than 2 supplemental servers", c.DisabledReason())
	assert.Equal(t, "Slower than 102.4ms cutoff", slow.DisabledReason())
	assert.Equal(t, "broken", broken.DisabledReason())
}

func TestDisableSlowestSupplementalServers_preferredOnly(t *testing.T) {
	ns := nameserver.New("192.0.2.1")
	ns.IsPrimary = true
	ns.AddCheck(nameserver.ProbeResult{Duration: time.Second})

	DisableSlowestSupplementalServers([]*nameserver.Nameserver{ns}, TooDistantMultiplier, MaxServersToCheck)

	assert.False(t, ns.Disabled())
}

func TestDisableUnwanted(t *testing.T) {
	withChecks := func(ip string, durations ...time.Duration) *nameserver.Nameserver {
		ns := nameserver.New(ip)
		for _, d := range durations {
			ns.AddCheck(nameserver.ProbeResult{Duration: d})
		}
		return ns
	}
	preferred := withChecks("192.0.2.100", 500*time.Millisecond)
	preferred.IsCustom = true
	nearest := withChecks("192.0.2.1", 5*time.Millisecond, 100*time.Millisecond)
	fastest := withChecks("192.0.2.2", 20*time.Millisecond, 20*time.Millisecond)
	third := withChecks("192.0.2.3", 30*time.Millisecond, 30*time.Millisecond)
	fourth := withChecks("192.0.2.4", 40*time.Millisecond, 40*time.Millisecond)

	DisableUnwanted([]*nameserver.Nameserver{fourth, third, fastest, nearest, preferred}, 3)

	assert.False(t, preferred.Disabled())
	assert.False(t, nearest.Disabled())
	assert.False(t, fastest.Disabled())
	assert.True(t, third.Disabled())
	assert.True(t, fourth.Disabled())
}

func TestDisableUnwanted_onlyPreferred(t *testing.T) {
	a, b := nameserver.New("192.0.2.1"), nameserver.New("192.0.2.2")
	a.IsInternal = true
	b.IsPrimary = true

	DisableUnwanted([]*nameserver.Nameserver{a, b}, 1)

	assert.False(t, a.Disabled())
	assert.False(t, b.Disabled())
}

func TestRemoveGlobalWarnings(t *testing.T) {
	a, b, c := nameserver.New("192.0.2.1"), nameserver.New("192.0.2.2"), nameserver.New("192.0.2.3")
	a.AddWarning("NXDOMAIN Hijacking")
	a.AddWarning("slow")
	b.AddWarning("NXDOMAIN Hijacking")
	c.Disable("broken")

	RemoveGlobalWarnings([]*nameserver.Nameserver{a, b, c})

	assert.Equal(t, []string{"slow"}, a.Warnings())
	assert.Empty(t, b.Warnings())
}
