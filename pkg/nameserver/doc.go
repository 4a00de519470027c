/*
Package nameserver models a single DNS server under test. A Nameserver issues timed plain DNS
queries over UDP through Nameserver.TimedRequest, classifies every failure into an ErrorKind and
accumulates the state learned while qualifying and benchmarking it: exclusion reason, warnings,
health check log, wildcard cache entries and servers sharing its cache.
*/
package nameserver
