package healthcheck

import "fmt"

// Mode selects the tier of the probe battery.
type Mode int

const (
	// ModeFull runs the localhost probe and the primary sanity checks.
	ModeFull Mode = iota
	// ModeFast runs only the root server probe.
	ModeFast
	// ModeFinal runs the NXDOMAIN hijacking probe and the secondary sanity checks.
	ModeFinal
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeFast:
		return "fast"
	case ModeFinal:
		return "final"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Battery returns the ordered probe list of the given tier.
func Battery(mode Mode, checks []SanityCheck) []Probe {
	var probes []Probe
	switch mode {
	case ModeFast:
		return []Probe{RootServer()}
	case ModeFinal:
		probes = append(probes, NegativeResponse{})
		if len(checks) > PrimarySanityChecks {
			checks = checks[PrimarySanityChecks:]
		} else {
			checks = nil
		}
	default:
		probes = append(probes, LocalhostResponse{})
		if len(checks) > PrimarySanityChecks {
			checks = checks[:PrimarySanityChecks]
		}
	}
	for _, c := range checks {
		probes = append(probes, FromSanityCheck(c))
	}
	return probes
}
