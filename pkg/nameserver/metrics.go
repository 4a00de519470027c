package nameserver

import (
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dnsRequestsDurationMetrics = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nsbench",
		Name:      "dns_requests_duration_seconds",
		Help:      "DNS request duration in seconds",
	}, []string{"server"})

	dnsResponseTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nsbench",
		Name:      "dns_response_total",
		Help:      "The total number DNS responses",
	}, []string{"server", "rcode"})

	errorsTotalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nsbench",
		Name:      "errors_total",
		Help:      "The total number errors",
	}, []string{"server", "kind"})
)

func observeRequest(server string, dur time.Duration, resp *dns.Msg, err error) {
	dnsRequestsDurationMetrics.WithLabelValues(server).Observe(dur.Seconds())
	if err != nil {
		errorsTotalMetrics.WithLabelValues(server, KindOf(err).String()).Inc()
		return
	}
	if resp != nil {
		dnsResponseTotalMetrics.WithLabelValues(server, dns.RcodeToString[resp.Rcode]).Inc()
	}
}
