package nameserver

import (
	"time"

	"github.com/miekg/dns"
)

// UDPTransport is the only transport supported for qualification and benchmarking.
const UDPTransport = "udp"

// Exchanger sends a single DNS query to address and waits at most timeout for the reply.
// Implementations must enforce the timeout as a hard deadline on the underlying connection.
type Exchanger interface {
	Exchange(m *dns.Msg, address string, timeout time.Duration) (*dns.Msg, error)
}

// ExchangerFunc adapts an ordinary function to the Exchanger interface.
type ExchangerFunc func(m *dns.Msg, address string, timeout time.Duration) (*dns.Msg, error)

// Exchange calls f(m, address, timeout).
func (f ExchangerFunc) Exchange(m *dns.Msg, address string, timeout time.Duration) (*dns.Msg, error) {
	return f(m, address, timeout)
}

type udpExchanger struct {
	udpSize uint16
}

// NewUDPExchanger returns an Exchanger issuing plain DNS over UDP. The client timeout is applied
// to dial, write and read deadlines of the socket, so a query can never block past it.
// When udpSize is greater than zero, EDNS0 with the given buffer size is requested.
func NewUDPExchanger(udpSize uint16) Exchanger {
	return &udpExchanger{udpSize: udpSize}
}

func (u *udpExchanger) Exchange(m *dns.Msg, address string, timeout time.Duration) (*dns.Msg, error) {
	if u.udpSize > 0 && m.IsEdns0() == nil {
		m.SetEdns0(u.udpSize, false)
	}
	c := dns.Client{
		Net:     UDPTransport,
		Timeout: timeout,
	}
	r, _, err := c.Exchange(m, address)
	return r, err
}
