package nameserver

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

var errTruncated = errors.New("truncated response")

// ProbeResult is a single entry of the health check log of a nameserver.
type ProbeResult struct {
	Name     string
	Broken   bool
	Warning  string
	Duration time.Duration
}

// CacheEntry is a wildcard response remembered by a nameserver, used to detect shared caches.
type CacheEntry struct {
	Hostname  string
	Response  *dns.Msg
	Timestamp time.Time
}

// Nameserver is a DNS server under test. Its IP never changes after construction, everything
// else is accumulated during health checking and benchmarking and read during reporting.
type Nameserver struct {
	ip string

	// Name is a human readable name of the server, defaults to the IP.
	Name string
	// Port is the UDP port the server listens on.
	Port string

	IsInternal bool
	IsPrimary  bool
	IsGlobal   bool
	IsCustom   bool
	// SystemPosition is the index of the server in the system resolver configuration, -1 when
	// the server is not configured on this system. Position 0 is the current primary resolver.
	SystemPosition int

	// Timeout bounds benchmark queries.
	Timeout time.Duration
	// HealthTimeout bounds health check queries.
	HealthTimeout time.Duration

	exchanger Exchanger
	logger    Logger
	now       func() time.Time

	mu           sync.RWMutex
	hostname     string
	disabled     string
	warnings     []string
	checks       []ProbeResult
	cacheChecks  []CacheEntry
	sharedWith   []*Nameserver
	requestCount int
	failureCount int
	errorMap     map[ErrorKind]int
}

// Option configures a Nameserver.
type Option func(*Nameserver)

// WithName sets the display name.
func WithName(name string) Option {
	return func(ns *Nameserver) {
		if name != "" {
			ns.Name = name
		}
	}
}

// WithPort overrides the default port 53.
func WithPort(port string) Option {
	return func(ns *Nameserver) {
		ns.Port = port
	}
}

// WithTimeout sets the timeout for benchmark queries.
func WithTimeout(timeout time.Duration) Option {
	return func(ns *Nameserver) {
		ns.Timeout = timeout
	}
}

// WithHealthTimeout sets the timeout for health check queries.
func WithHealthTimeout(timeout time.Duration) Option {
	return func(ns *Nameserver) {
		ns.HealthTimeout = timeout
	}
}

// WithExchanger replaces the UDP transport.
func WithExchanger(e Exchanger) Option {
	return func(ns *Nameserver) {
		ns.exchanger = e
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l Logger) Option {
	return func(ns *Nameserver) {
		ns.logger = l
	}
}

// WithClock replaces the wall clock used to timestamp cache entries.
func WithClock(now func() time.Time) Option {
	return func(ns *Nameserver) {
		ns.now = now
	}
}

// WithSystemPosition marks the server as one of the system resolvers.
func WithSystemPosition(pos int) Option {
	return func(ns *Nameserver) {
		ns.SystemPosition = pos
		ns.IsInternal = true
	}
}

// WithTags sets the flags of the server from textual tags.
func WithTags(tags ...string) Option {
	return func(ns *Nameserver) {
		for _, t := range tags {
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "internal", "system":
				ns.IsInternal = true
			case "primary", "preferred":
				ns.IsPrimary = true
			case "global":
				ns.IsGlobal = true
			case "custom", "specified":
				ns.IsCustom = true
			}
		}
	}
}

// New creates a Nameserver for the given IP address.
func New(ip string, opts ...Option) *Nameserver {
	ns := &Nameserver{
		ip:             ip,
		Name:           ip,
		Port:           DefaultPort,
		SystemPosition: -1,
		Timeout:        DefaultTimeout,
		HealthTimeout:  DefaultHealthTimeout,
		exchanger:      NewUDPExchanger(0),
		logger:         DiscardLogger,
		now:            time.Now,
		errorMap:       make(map[ErrorKind]int),
	}
	for _, o := range opts {
		o(ns)
	}
	return ns
}

// IP returns the identity of the server.
func (ns *Nameserver) IP() string {
	return ns.ip
}

// Addr returns the ip:port address queries are sent to.
func (ns *Nameserver) Addr() string {
	return net.JoinHostPort(ns.ip, ns.Port)
}

// IsIPv6 reports whether the server is addressed over IPv6.
func (ns *Nameserver) IsIPv6() bool {
	return strings.Contains(ns.ip, ":")
}

// Now returns the current time according to the clock of the server.
func (ns *Nameserver) Now() time.Time {
	return ns.now()
}

func (ns *Nameserver) String() string {
	return fmt.Sprintf("%s [%s]", ns.Name, ns.ip)
}

// TimedRequest issues a single query and measures how long it took. It never blocks past
// timeout (the server's Timeout is used when timeout is not positive) and it never panics:
// every failure is reported as a *QueryError with a nil response. The returned duration is
// always the real elapsed time.
func (ns *Nameserver) TimedRequest(recordType, name string, timeout time.Duration) (*dns.Msg, time.Duration, error) {
	ns.mu.Lock()
	ns.requestCount++
	ns.mu.Unlock()

	qtype, ok := dns.StringToType[strings.ToUpper(recordType)]
	if !ok {
		qerr := &QueryError{Kind: KindInvalidQuery, Err: fmt.Errorf("unknown record type %q", recordType)}
		ns.recordFailure(qerr.Kind)
		return nil, 0, qerr
	}
	if timeout <= 0 {
		timeout = ns.Timeout
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)

	start := time.Now()
	resp, err := ns.exchange(req, timeout)
	dur := time.Since(start)

	if err == nil && resp == nil {
		err = &QueryError{Kind: KindNetwork, Err: errors.New("empty response")}
	}
	if err == nil && resp.Truncated {
		err = &QueryError{Kind: KindMalformedResponse, Err: errTruncated}
	}

	observeRequest(ns.ip, dur, resp, err)
	logRequest(ns.logger, ns.ip, req, resp, err, dur)

	if err != nil {
		var qerr *QueryError
		if !errors.As(err, &qerr) {
			qerr = newQueryError(err)
		}
		ns.recordFailure(qerr.Kind)
		return nil, dur, qerr
	}
	return resp, dur, nil
}

func (ns *Nameserver) exchange(req *dns.Msg, timeout time.Duration) (resp *dns.Msg, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &QueryError{Kind: KindNetwork, Err: fmt.Errorf("exchange panicked: %v", r)}
		}
	}()
	return ns.exchanger.Exchange(req, ns.Addr(), timeout)
}

func (ns *Nameserver) recordFailure(kind ErrorKind) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.failureCount++
	ns.errorMap[kind]++
}

// SetHostname records the name the server IP resolves to.
func (ns *Nameserver) SetHostname(hostname string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.hostname = strings.TrimSuffix(hostname, ".")
}

// Hostname returns the reverse name of the server, its IP when unknown.
func (ns *Nameserver) Hostname() string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.hostname == "" {
		return ns.ip
	}
	return ns.hostname
}

// Disable excludes the server from benchmarking. Disabling is monotonic, the first
// reason is kept and later calls have no effect.
func (ns *Nameserver) Disable(reason string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.disabled != "" {
		return
	}
	if reason == "" {
		reason = "disabled"
	}
	ns.disabled = reason
}

// Disabled reports whether the server was excluded.
func (ns *Nameserver) Disabled() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.disabled != ""
}

// DisabledReason returns why the server was excluded, or an empty string.
func (ns *Nameserver) DisabledReason() string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.disabled
}

// AddWarning records a warning, duplicates are ignored and insertion order is kept.
func (ns *Nameserver) AddWarning(warning string) {
	if warning == "" {
		return
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, w := range ns.warnings {
		if w == warning {
			return
		}
	}
	ns.warnings = append(ns.warnings, warning)
}

// RemoveWarning drops a previously recorded warning.
func (ns *Nameserver) RemoveWarning(warning string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for i, w := range ns.warnings {
		if w == warning {
			ns.warnings = append(ns.warnings[:i], ns.warnings[i+1:]...)
			return
		}
	}
}

// Warnings returns a copy of the recorded warnings.
func (ns *Nameserver) Warnings() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return append([]string(nil), ns.warnings...)
}

// WarningsString renders the warnings, or the exclusion reason for disabled servers.
func (ns *Nameserver) WarningsString() string {
	if reason := ns.DisabledReason(); reason != "" {
		return fmt.Sprintf("(excluded: %s)", reason)
	}
	return strings.Join(ns.Warnings(), ", ")
}

// AddCheck appends a probe result to the health check log.
func (ns *Nameserver) AddCheck(r ProbeResult) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.checks = append(ns.checks, r)
}

// Checks returns a copy of the health check log.
func (ns *Nameserver) Checks() []ProbeResult {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return append([]ProbeResult(nil), ns.checks...)
}

// CheckAverage is the average duration of health checks. The first check is usually the
// availability probe, so it is only used on its own.
func (ns *Nameserver) CheckAverage() time.Duration {
	checks := ns.Checks()
	switch len(checks) {
	case 0:
		return 0
	case 1:
		return checks[0].Duration
	}
	var sum time.Duration
	for _, c := range checks[1:] {
		sum += c.Duration
	}
	return sum / time.Duration(len(checks)-1)
}

// FastestCheckDuration returns the duration of the fastest health check, or zero.
func (ns *Nameserver) FastestCheckDuration() time.Duration {
	checks := ns.Checks()
	if len(checks) == 0 {
		return 0
	}
	fastest := checks[0].Duration
	for _, c := range checks[1:] {
		if c.Duration < fastest {
			fastest = c.Duration
		}
	}
	return fastest
}

// SlowestCheckDuration returns the duration of the slowest health check, or zero.
func (ns *Nameserver) SlowestCheckDuration() time.Duration {
	var slowest time.Duration
	for _, c := range ns.Checks() {
		if c.Duration > slowest {
			slowest = c.Duration
		}
	}
	return slowest
}

// CheckDuration is the total time spent in health checks.
func (ns *Nameserver) CheckDuration() time.Duration {
	var sum time.Duration
	for _, c := range ns.Checks() {
		sum += c.Duration
	}
	return sum
}

// StoreCacheEntry remembers a wildcard response. Only the owning server writes its entries.
func (ns *Nameserver) StoreCacheEntry(hostname string, resp *dns.Msg) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.cacheChecks = append(ns.cacheChecks, CacheEntry{Hostname: hostname, Response: resp, Timestamp: ns.now()})
}

// CacheChecks returns a copy of the stored wildcard entries.
func (ns *Nameserver) CacheChecks() []CacheEntry {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return append([]CacheEntry(nil), ns.cacheChecks...)
}

// AddSharedWith records that the server shares its cache with other.
func (ns *Nameserver) AddSharedWith(other *Nameserver) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, s := range ns.sharedWith {
		if s == other {
			return
		}
	}
	ns.sharedWith = append(ns.sharedWith, other)
}

// SharedWith returns the servers known to share a cache with this one.
func (ns *Nameserver) SharedWith() []*Nameserver {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return append([]*Nameserver(nil), ns.sharedWith...)
}

// RequestCount returns the number of queries issued since the last reset.
func (ns *Nameserver) RequestCount() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.requestCount
}

// FailureCount returns the number of queries without usable response since the last reset.
func (ns *Nameserver) FailureCount() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.failureCount
}

// FailureRate returns the percentage of failed queries.
func (ns *Nameserver) FailureRate() float64 {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.failureCount == 0 || ns.requestCount == 0 {
		return 0
	}
	return float64(ns.failureCount) / float64(ns.requestCount) * 100
}

// IsFailureProne reports whether too many queries to this server failed.
func (ns *Nameserver) IsFailureProne() bool {
	return ns.FailureRate() >= FailureProneRate
}

// TimeoutCount returns the number of timed out queries.
func (ns *Nameserver) TimeoutCount() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.errorMap[KindTimeout]
}

// ErrorCount returns the number of failed queries other than timeouts.
func (ns *Nameserver) ErrorCount() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	var c int
	for k, v := range ns.errorMap {
		if k != KindTimeout {
			c += v
		}
	}
	return c
}

// Errors describes failures other than timeouts, e.g. "MalformedResponse (2 requests)".
func (ns *Nameserver) Errors() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	var errs []string
	for k := KindNone; k <= KindSharedCacheDetected; k++ {
		if c := ns.errorMap[k]; c > 0 && k != KindTimeout {
			errs = append(errs, fmt.Sprintf("%s (%d requests)", k, c))
		}
	}
	return errs
}

// ResetErrorCounts clears the request and failure accounting.
func (ns *Nameserver) ResetErrorCounts() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.requestCount = 0
	ns.failureCount = 0
	ns.errorMap = make(map[ErrorKind]int)
}

// ResetTestStatus clears everything learned during health checking.
func (ns *Nameserver) ResetTestStatus() {
	ns.mu.Lock()
	ns.disabled = ""
	ns.warnings = nil
	ns.checks = nil
	ns.cacheChecks = nil
	ns.sharedWith = nil
	ns.mu.Unlock()
	ns.ResetErrorCounts()
}

// Notes returns human readable remarks about the server for reports.
func (ns *Nameserver) Notes() []string {
	var notes []string
	switch {
	case ns.SystemPosition == 0:
		notes = append(notes, "The current preferred DNS server.")
	case ns.SystemPosition > 0:
		notes = append(notes, "A backup DNS server for this system.")
	}
	if ns.IsFailureProne() {
		notes = append(notes, fmt.Sprintf("%0.0f%% of queries to this host failed", ns.FailureRate()))
	}
	if reason := ns.DisabledReason(); reason != "" {
		notes = append(notes, reason)
	} else {
		notes = append(notes, ns.Warnings()...)
	}
	return append(notes, ns.Errors()...)
}
