/*
Package healthcheck qualifies nameservers before they are benchmarked. A Checker runs a tiered
battery of probes against every server using a bounded worker pool, disabling a server on the
first broken probe, detects servers backed by a shared cache by comparing TTLs of wildcard
records, and resolves such replicas so only one of them is benchmarked.
*/
package healthcheck
