package nameserver

import "time"

const (
	// DefaultPort is the port plain DNS servers listen on.
	DefaultPort = "53"

	// DefaultTimeout is a default timeout of benchmark queries.
	DefaultTimeout = 2 * time.Second

	// DefaultHealthTimeout is a default timeout of health check queries.
	DefaultHealthTimeout = 2 * time.Second

	// DefaultEdns0BufferSize default EDNS0 buffer size according to the http://www.dnsflagday.net/2020/
	DefaultEdns0BufferSize = 1232

	// FailureProneRate is the failure percentage at which a server is reported as failure prone.
	FailureProneRate = 10.0
)
