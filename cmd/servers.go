package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/nsbench/nsbench/pkg/nameserver"
)

type knownServer struct {
	ip   string
	name string
	tags []string
}

// globalServers are well known public resolvers tested with --global.
var globalServers = []knownServer{
	{ip: "8.8.8.8", name: "Google Public DNS", tags: []string{"global", "preferred"}},
	{ip: "8.8.4.4", name: "Google Public DNS-2", tags: []string{"global"}},
	{ip: "1.1.1.1", name: "Cloudflare", tags: []string{"global", "preferred"}},
	{ip: "1.0.0.1", name: "Cloudflare-2", tags: []string{"global"}},
	{ip: "9.9.9.9", name: "Quad9", tags: []string{"global", "preferred"}},
	{ip: "149.112.112.112", name: "Quad9-2", tags: []string{"global"}},
	{ip: "208.67.222.222", name: "OpenDNS", tags: []string{"global", "preferred"}},
	{ip: "208.67.220.220", name: "OpenDNS-2", tags: []string{"global"}},
	{ip: "94.140.14.14", name: "AdGuard DNS", tags: []string{"global"}},
	{ip: "185.228.168.9", name: "CleanBrowsing", tags: []string{"global"}},
	{ip: "76.76.2.0", name: "Control D", tags: []string{"global"}},
	{ip: "4.2.2.1", name: "Level3", tags: []string{"global"}},
	{ip: "4.2.2.2", name: "Level3-2", tags: []string{"global"}},
}

// defaultRecords are used when no test records are provided.
var defaultRecords = []string{
	"A www.google.com.",
	"A www.youtube.com.",
	"A www.facebook.com.",
	"A www.wikipedia.org.",
	"A www.amazon.com.",
	"A www.instagram.com.",
	"A www.linkedin.com.",
	"A www.reddit.com.",
	"A www.netflix.com.",
	"A www.microsoft.com.",
	"A www.apple.com.",
	"A www.github.com.",
	"A www.bing.com.",
	"A www.yahoo.com.",
	"A www.twitch.tv.",
	"A www.ebay.com.",
	"A www.cnn.com.",
	"A www.bbc.co.uk.",
	"A www.nytimes.com.",
	"A www.paypal.com.",
	"AAAA www.google.com.",
	"AAAA www.facebook.com.",
	"MX gmail.com.",
	"MX outlook.com.",
}

func (b *Benchmark) writer() io.Writer {
	if b.Writer == nil {
		return os.Stderr
	}
	return b.Writer
}

// nameservers collects the servers to test. System servers come first, so they keep their system
// position, followed by user provided and global servers. Duplicate addresses are tested once.
func (b *Benchmark) nameservers() ([]*nameserver.Nameserver, error) {
	opts := b.serverOptions()
	useSystem, useGlobal := b.System, b.Global
	if len(b.Servers) == 0 && !useSystem && !useGlobal {
		useSystem, useGlobal = true, true
	}

	var servers []*nameserver.Nameserver
	seen := make(map[string]bool)
	add := func(ns *nameserver.Nameserver) {
		if seen[ns.Addr()] {
			return
		}
		seen[ns.Addr()] = true
		servers = append(servers, ns)
	}

	if useSystem {
		system := nameserver.System(opts...)
		if len(system) == 0 {
			b.logger().Warn("no system nameservers were discovered")
		}
		for _, ns := range system {
			add(ns)
		}
	}

	for _, s := range b.Servers {
		var lines []string
		if path, ok := strings.CutPrefix(s, "@"); ok {
			l, err := readLines(path)
			if err != nil {
				return nil, err
			}
			lines = l
		} else {
			lines = []string{s}
		}
		for _, line := range lines {
			ns, err := parseServer(line, opts)
			if err != nil {
				return nil, err
			}
			add(ns)
		}
	}

	if useGlobal {
		for _, g := range globalServers {
			add(nameserver.New(g.ip, append([]nameserver.Option{nameserver.WithName(g.name), nameserver.WithTags(g.tags...)}, opts...)...))
		}
	}
	return servers, nil
}

// parseServer parses a server in format 'ip[:port][,name[,tags]]', tags are separated by spaces.
func parseServer(line string, opts []nameserver.Option) (*nameserver.Nameserver, error) {
	fields := strings.SplitN(line, ",", 3)
	addr := strings.TrimSpace(fields[0])

	host, port := addr, nameserver.DefaultPort
	if net.ParseIP(strings.Trim(addr, "[]")) == nil {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid nameserver '%s': %w", addr, err)
		}
		host, port = h, p
	}
	host = strings.Trim(host, "[]")
	if net.ParseIP(host) == nil {
		return nil, fmt.Errorf("invalid nameserver '%s': not an IP address", addr)
	}

	serverOpts := []nameserver.Option{nameserver.WithPort(port), nameserver.WithTags("custom")}
	if len(fields) > 1 {
		if name := strings.TrimSpace(fields[1]); name != "" {
			serverOpts = append(serverOpts, nameserver.WithName(name))
		}
	}
	if len(fields) > 2 {
		serverOpts = append(serverOpts, nameserver.WithTags(strings.Fields(fields[2])...))
	}
	return nameserver.New(host, append(serverOpts, opts...)...), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func trimFileRef(s string) string {
	return strings.TrimPrefix(s, "@")
}
