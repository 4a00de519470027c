package nameserver

import "fmt"

// System builds Nameserver values for the system resolvers, marking their position in the
// resolver configuration.
func System(opts ...Option) []*Nameserver {
	var servers []*Nameserver
	for i, ip := range SystemNameServers() {
		o := append([]Option{WithSystemPosition(i), WithName(fmt.Sprintf("SYS-%s", ip))}, opts...)
		if i == 0 {
			o = append(o, WithTags("primary"))
		}
		servers = append(servers, New(ip, o...))
	}
	return servers
}
