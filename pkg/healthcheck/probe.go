package healthcheck

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

// Outcome is the result of running a single probe.
type Outcome struct {
	Broken   bool
	Warning  string
	Duration time.Duration
}

// Probe is a single bounded check run against a nameserver.
type Probe interface {
	Name() string
	Run(ns *nameserver.Nameserver) Outcome
}

// runProbe runs p and converts a panic into a broken outcome.
func runProbe(p Probe, ns *nameserver.Nameserver) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Broken: true, Warning: fmt.Sprintf("%s: %v", nameserver.KindNetwork, r)}
		}
	}()
	return p.Run(ns)
}

func failure(err error, dur time.Duration) Outcome {
	return Outcome{Broken: true, Warning: nameserver.KindOf(err).String(), Duration: dur}
}

// AnswerMatch checks that every answer for a record contains one of the expected strings.
type AnswerMatch struct {
	RecordType string
	Record     string
	Expected   []string
	// Fatal makes an empty answer break the server.
	Fatal bool
}

// Name returns the queried record.
func (p AnswerMatch) Name() string {
	return p.Record
}

// Run executes the probe.
func (p AnswerMatch) Run(ns *nameserver.Nameserver) Outcome {
	resp, dur, err := ns.TimedRequest(p.RecordType, p.Record, ns.HealthTimeout)
	if err != nil {
		return failure(err, dur)
	}
	if len(resp.Answer) == 0 {
		// empty answers must not make a broken server look fast
		return Outcome{Broken: p.Fatal, Warning: fmt.Sprintf("No answer for %s", p.Record), Duration: ns.HealthTimeout}
	}
	for _, rr := range resp.Answer {
		if !containsAny(rr.String(), p.Expected) {
			return Outcome{Warning: fmt.Sprintf("%s hijacked (%s)", p.Record, answerText(resp)), Duration: dur}
		}
	}
	return Outcome{Duration: dur}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func answerText(resp *dns.Msg) string {
	values := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		values = append(values, strings.TrimPrefix(rr.String(), rr.Header().String()))
	}
	return strings.Join(values, ", ")
}

// FromSanityCheck builds a fatal AnswerMatch probe.
func FromSanityCheck(c SanityCheck) AnswerMatch {
	return AnswerMatch{RecordType: c.RecordType, Record: c.Name, Expected: c.Expected, Fatal: true}
}

// RootServer is the cheap availability probe.
func RootServer() AnswerMatch {
	return AnswerMatch{RecordType: "A", Record: "a.root-servers.net.", Expected: []string{"198.41.0.4"}, Fatal: true}
}

// NegativeResponse queries a random name which must not exist, any answer means the server
// rewrites NXDOMAIN responses.
type NegativeResponse struct {
	// Zone is the trusted parent zone, google.com. when empty.
	Zone string
}

// Name returns the probe name.
func (NegativeResponse) Name() string {
	return "NegativeResponse"
}

// Run executes the probe.
func (p NegativeResponse) Run(ns *nameserver.Nameserver) Outcome {
	zone := p.Zone
	if zone == "" {
		zone = "google.com."
	}
	name := fmt.Sprintf("nb.%d.%s", rand.Uint64(), dns.Fqdn(zone))
	resp, dur, err := ns.TimedRequest("A", name, ns.HealthTimeout)
	if err != nil {
		return failure(err, dur)
	}
	if len(resp.Answer) > 0 {
		return Outcome{Warning: "NXDOMAIN Hijacking", Duration: dur}
	}
	return Outcome{Duration: dur}
}

// LocalhostResponse resolves localhost. using the benchmark timeout.
type LocalhostResponse struct{}

// Name returns the probe name.
func (LocalhostResponse) Name() string {
	return "LocalhostResponse"
}

// Run executes the probe.
func (LocalhostResponse) Run(ns *nameserver.Nameserver) Outcome {
	_, dur, err := ns.TimedRequest("A", "localhost.", ns.Timeout)
	if err != nil {
		return failure(err, dur)
	}
	return Outcome{Duration: dur}
}

// ReverseResponse resolves the PTR record of the server itself.
type ReverseResponse struct{}

// Name returns the probe name.
func (ReverseResponse) Name() string {
	return "ReverseResponse"
}

// Run executes the probe.
func (ReverseResponse) Run(ns *nameserver.Nameserver) Outcome {
	_, dur, err := ReverseLookup(ns, ns.IP())
	if err != nil {
		return failure(err, dur)
	}
	return Outcome{Duration: dur}
}

// ReverseLookup asks resolver for the PTR record of ip. The hostname is empty when there is none.
func ReverseLookup(resolver *nameserver.Nameserver, ip string) (string, time.Duration, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", 0, &nameserver.QueryError{Kind: nameserver.KindInvalidQuery, Err: err}
	}
	resp, dur, err := resolver.TimedRequest("PTR", arpa, resolver.HealthTimeout)
	if err != nil {
		return "", dur, err
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), dur, nil
		}
	}
	return "", dur, nil
}
