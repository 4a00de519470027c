//go:build unix

package nameserver

import "github.com/miekg/dns"

const resolvConfPath = "/etc/resolv.conf"

// SystemNameServers returns addresses of the nameservers configured in /etc/resolv.conf, in the order
// the system resolver uses them. If the file cannot be read, no servers are returned.
func SystemNameServers() []string {
	return systemNameServersFrom(resolvConfPath)
}

func systemNameServersFrom(path string) []string {
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil
	}
	return conf.Servers
}
