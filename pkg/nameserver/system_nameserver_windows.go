//go:build windows

package nameserver

import (
	"os/exec"
	"regexp"
)

// SystemNameServers returns the address of the nameserver nslookup reports as the default one.
func SystemNameServers() []string {
	out, err := exec.Command("nslookup").Output()
	if err != nil {
		return nil
	}

	re := regexp.MustCompile(`Address:\s+([^\s]+)`)
	matches := re.FindStringSubmatch(string(out))

	if len(matches) != 2 {
		return nil
	}
	return matches[1:]
}
