//go:build !(unix || windows)

package nameserver

// SystemNameServers returns addresses of the nameservers configured on this system.
func SystemNameServers() []string {
	return nil
}
