package healthcheck

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/nsbench/nsbench/pkg/nameserver"
)

var errNoWildcardDomains = errors.New("no wildcard domains configured")

// StoreWildcardCache resolves random subdomains of wildcard zones and remembers the answers, so
// other servers can later be compared against them. Failing to store the entries within the attempt
// budget disables the server.
func StoreWildcardCache(ns *nameserver.Nameserver, domains []string) error {
	if len(domains) == 0 {
		return errNoWildcardDomains
	}
	timeout := ns.HealthTimeout * sharedCacheTimeoutMultiplier

	var attempted []string
	for stored := len(ns.CacheChecks()); stored < totalWildcardsToStore; {
		if len(attempted) == maxStoreAttempts {
			err := fmt.Errorf("could not recursively query: %s", strings.Join(attempted, ", "))
			ns.Disable("Could not recursively query: " + strings.Join(attempted, ", "))
			return &nameserver.QueryError{Kind: nameserver.KindWildcardStoreExhausted, Err: err}
		}
		hostname := fmt.Sprintf("nsbench%d.%s", rand.Uint32(), domains[rand.IntN(len(domains))])
		attempted = append(attempted, hostname)

		resp, _, err := ns.TimedRequest("A", hostname, timeout)
		if err == nil && len(resp.Answer) > 0 {
			ns.StoreCacheEntry(hostname, resp)
			stored++
		}
	}
	return nil
}

// SharesCache reports whether ns answers from the same cache as other. The wildcard entries other
// stored earlier are queried again on ns: a cache shared with other returns a TTL which decremented
// by the time that passed since the entry was stored.
func SharesCache(ns, other *nameserver.Nameserver) bool {
	if ns.Disabled() || other.Disabled() {
		return false
	}
	entries := other.CacheChecks()
	if len(entries) == 0 {
		return false
	}
	timeout := ns.HealthTimeout * sharedCacheTimeoutMultiplier

	checked := 0
	for _, e := range entries {
		resp, _, err := ns.TimedRequest("A", e.Hostname, timeout)
		if err != nil || len(resp.Answer) == 0 || e.Response == nil || len(e.Response.Answer) == 0 {
			continue
		}
		checked++

		refTTL := float64(e.Response.Answer[0].Header().Ttl)
		ttl := float64(resp.Answer[0].Header().Ttl)
		delta := math.Abs(refTTL - ttl)
		queryAge := ns.Now().Sub(e.Timestamp).Seconds()

		if delta > 0 && math.Abs(queryAge-delta) < sharedCacheTolerance {
			return true
		}
	}
	if checked == 0 {
		ns.AddWarning(fmt.Sprintf("Failed to test %d wildcard caches", len(entries)))
	}
	return false
}
