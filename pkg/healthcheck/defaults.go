package healthcheck

import "time"

const (
	// DefaultConcurrency is a default number of servers checked in parallel.
	DefaultConcurrency = 40

	// MaxHealthConcurrency caps the worker pool used for the full health check tier.
	MaxHealthConcurrency = 35

	// SlowModeConcurrency is used when too few servers answered the availability check.
	SlowModeConcurrency = 6

	// MinPingablePercent is the share of servers which must pass the availability check,
	// otherwise it is retried in slow mode.
	MinPingablePercent = 20.0

	// DefaultTTLWait is how long to wait for TTLs to decrement before comparing caches.
	DefaultTTLWait = 4 * time.Second

	// PrimarySanityChecks is the number of sanity checks used by the full tier, the rest
	// is used by the final tier.
	PrimarySanityChecks = 5

	// InterceptionCheckServer answers which.opendns.com. with a marker when queries reach it unaltered.
	InterceptionCheckServer = "208.67.220.220"

	// CongestionCheckServer is a public resolver used to measure connection quality.
	CongestionCheckServer = "8.8.8.8"

	// ExpectedCongestionDuration is the average connection check duration of an uncongested link.
	ExpectedCongestionDuration = 40 * time.Millisecond

	// MaxCongestionMultiplier caps how much health timeouts are stretched on a congested link.
	MaxCongestionMultiplier = 3.0

	// TooDistantMultiplier scales the average of the best servers into the supplemental cutoff.
	TooDistantMultiplier = 4.75

	// MaxServersToCheck limits how many supplemental servers enter the full tier.
	MaxServersToCheck = 350

	congestionOffsetMultiplier   = 1.0
	congestionRounds             = 2
	congestionRoundPause         = 500 * time.Millisecond
	bestServersCount             = 10
	sharedCacheTimeoutMultiplier = 5
	maxStoreAttempts             = 4
	totalWildcardsToStore        = 2
	sharedCacheTolerance         = 2.0
)

// DefaultWildcardDomains are zones answering any subdomain.
var DefaultWildcardDomains = []string{"live.com.", "blogspot.com.", "wordpress.com."}

// DefaultSanityChecks is a built-in list of sanity checks. The first PrimarySanityChecks entries
// are used by the full tier, the remaining ones by the final tier.
var DefaultSanityChecks = []SanityCheck{
	{RecordType: "A", Name: "a.root-servers.net.", Expected: []string{"198.41.0.4"}},
	{RecordType: "A", Name: "k.root-servers.net.", Expected: []string{"193.0.14.129"}},
	{RecordType: "A", Name: "a.gtld-servers.net.", Expected: []string{"192.5.6.30"}},
	{RecordType: "NS", Name: "com.", Expected: []string{"gtld-servers.net"}},
	{RecordType: "A", Name: "www.google.com.", Expected: []string{"google.com"}},
	{RecordType: "A", Name: "www.paypal.com.", Expected: []string{"paypal.com", "akamai"}},
	{RecordType: "A", Name: "www.facebook.com.", Expected: []string{"facebook"}},
	{RecordType: "A", Name: "www.wikipedia.org.", Expected: []string{"wikipedia", "wikimedia"}},
	{RecordType: "MX", Name: "google.com.", Expected: []string{"google.com"}},
}
