package cmd

import (
	"strings"

	"github.com/miekg/dns"
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
	s := &dns.Server{Net: "udp", Addr: "127.0.0.1:0", NotifyStartedFunc: func() { close(ch) }, Handler: f}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	return &Server{inner: s, Addr: s.PacketConn.LocalAddr().String()}
}

// A creates A record from the string.
func A(rr string) *dns.A {
	r, _ := dns.NewRR(rr)
	return r.(*dns.A)
}

// resolver answers like a well behaving recursive resolver, rootIP is returned for a.root-servers.net.
// and an empty rootIP leaves its answer empty.
func resolver(rootIP string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		q := r.Question[0]
		ret := new(dns.Msg)
		ret.SetReply(r)
		switch {
		case q.Name == "a.root-servers.net.":
			if rootIP != "" {
				ret.Answer = append(ret.Answer, A("a.root-servers.net. 3600 IN A "+rootIP))
			}
		case strings.HasPrefix(q.Name, "nb."):
			ret.Rcode = dns.RcodeNameError
		case q.Qtype == dns.TypeA:
			ret.Answer = append(ret.Answer, A(q.Name+" 300 IN A 192.0.2.1"))
		}
		_ = w.WriteMsg(ret)
	}
}
