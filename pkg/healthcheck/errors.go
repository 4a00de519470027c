package healthcheck

import "errors"

// ErrTooFewNameservers is returned when qualification leaves no enabled nameserver.
var ErrTooFewNameservers = errors.New("none of the nameservers tested are healthy")

// ErrOutgoingUDPInterception is returned when DNS queries are answered by something other than the
// queried server, e.g. a transparent proxy on the local network.
var ErrOutgoingUDPInterception = errors.New("outgoing DNS queries are being intercepted")
