package healthcheck

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log/handlers/memory"
	"github.com/miekg/dns"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var errTimeout = &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}

// A creates A record from the string.
func A(rr string) *dns.A {
	r, _ := dns.NewRR(rr)
	return r.(*dns.A)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.Advance(d)
}

// healthyExchanger answers like a well behaving recursive resolver.
func healthyExchanger(calls *atomic.Int32) nameserver.ExchangerFunc {
	return func(m *dns.Msg, _ string, _ time.Duration) (*dns.Msg, error) {
		if calls != nil {
			calls.Add(1)
		}
		q := m.Question[0]
		r := new(dns.Msg).SetReply(m)
		switch {
		case q.Name == "a.root-servers.net.":
			r.Answer = append(r.Answer, A("a.root-servers.net. 3600 IN A 198.41.0.4"))
		case strings.HasPrefix(q.Name, "nb."):
			r.Rcode = dns.RcodeNameError
		default:
			r.Answer = append(r.Answer, A(q.Name+" 300 IN A 192.0.2.10"))
		}
		return r, nil
	}
}

func timeoutExchanger(calls *atomic.Int32) nameserver.ExchangerFunc {
	return func(*dns.Msg, string, time.Duration) (*dns.Msg, error) {
		if calls != nil {
			calls.Add(1)
		}
		return nil, errTimeout
	}
}

// fakeCache answers wildcard queries from a cache whose TTLs decrement with the clock.
type fakeCache struct {
	mu     sync.Mutex
	clock  *fakeClock
	stored map[string]time.Time
}

func newFakeCache(clock *fakeClock) *fakeCache {
	return &fakeCache{clock: clock, stored: make(map[string]time.Time)}
}

func (f *fakeCache) Exchange(m *dns.Msg, _ string, _ time.Duration) (*dns.Msg, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := m.Question[0]
	now := f.clock.Now()
	at, ok := f.stored[q.Name]
	if !ok {
		f.stored[q.Name] = now
		at = now
	}
	r := new(dns.Msg).SetReply(m)
	r.Answer = append(r.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300 - uint32(now.Sub(at).Seconds())},
		A:   net.ParseIP("192.0.2.10"),
	})
	return r, nil
}

// quietConnection makes the connection quality check see an uncongested link.
var quietConnection = []nameserver.Option{nameserver.WithExchanger(healthyExchanger(nil))}

func messages(h *memory.Handler) []string {
	msgs := make([]string, 0, len(h.Entries))
	for _, e := range h.Entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}
