package healthcheck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/miekg/dns"
)

// SanityCheck is a query with the set of strings one of which every answer has to contain.
type SanityCheck struct {
	RecordType string
	Name       string
	Expected   []string
}

// ParseSanityCheck parses a check given as a "TYPE name" query and a comma separated list
// of expected values.
func ParseSanityCheck(query, expected string) (SanityCheck, error) {
	fields := strings.Fields(query)
	if len(fields) != 2 {
		return SanityCheck{}, fmt.Errorf("invalid sanity check query %q, expected \"TYPE name\"", query)
	}
	recordType := strings.ToUpper(fields[0])
	if _, ok := dns.StringToType[recordType]; !ok {
		return SanityCheck{}, fmt.Errorf("invalid record type %q in sanity check %q", fields[0], query)
	}

	var values []string
	for _, v := range strings.Split(expected, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return SanityCheck{}, fmt.Errorf("no expected values for sanity check %q", query)
	}
	return SanityCheck{RecordType: recordType, Name: dns.Fqdn(fields[1]), Expected: values}, nil
}

// ReadSanityChecks reads sanity checks, one per line in the "TYPE name = expected1,expected2" form.
// Empty lines and lines starting with # or ; are skipped.
func ReadSanityChecks(r io.Reader) ([]SanityCheck, error) {
	var checks []SanityCheck
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' || text[0] == ';' {
			continue
		}
		query, expected, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", line, text)
		}
		check, err := ParseSanityCheck(query, expected)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		checks = append(checks, check)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return checks, nil
}

// ReadSanityChecksFile reads sanity checks from the file at path.
func ReadSanityChecksFile(path string) ([]SanityCheck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sanity checks: %w", err)
	}
	defer f.Close()
	return ReadSanityChecks(f)
}
