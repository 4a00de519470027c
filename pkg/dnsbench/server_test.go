package dnsbench_test

import (
	"net"

	"github.com/miekg/dns"
	"github.com/nsbench/nsbench/pkg/nameserver"
)

// Server represents simple DNS server.
type Server struct {
	Addr  string
	inner *dns.Server
}

// Close shuts down running DNS server instance.
func (s *Server) Close() {
	s.inner.Shutdown()
}

// NewServer creates and starts new UDP DNS server instance.
func NewServer(f dns.HandlerFunc) *Server {
	ch := make(chan bool)
	s := &dns.Server{Net: nameserver.UDPTransport, Addr: "127.0.0.1:0", NotifyStartedFunc: func() { close(ch) }, Handler: f}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	return &Server{inner: s, Addr: s.PacketConn.LocalAddr().String()}
}

// Nameserver returns a Nameserver pointing at the test server.
func (s *Server) Nameserver(opts ...nameserver.Option) *nameserver.Nameserver {
	host, port, err := net.SplitHostPort(s.Addr)
	if err != nil {
		panic(err)
	}
	return nameserver.New(host, append([]nameserver.Option{nameserver.WithPort(port)}, opts...)...)
}

// A creates A record from the string.
func A(rr string) *dns.A {
	r, _ := dns.NewRR(rr)
	return r.(*dns.A)
}
