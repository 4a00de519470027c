package dnsbench

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var client = http.Client{
	Timeout: 120 * time.Second,
}

// TestRecord is a single query of the benchmark workload.
type TestRecord struct {
	Type string
	Name string
}

func (r TestRecord) String() string {
	return r.Type + " " + r.Name
}

// ParseTestRecord parses a record given as "TYPE name", "name TYPE" or just "name", in which case
// DefaultQueryType is used.
func ParseTestRecord(s string) (TestRecord, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return TestRecord{Type: DefaultQueryType, Name: dns.Fqdn(fields[0])}, nil
	case 2:
		if isRecordType(fields[0]) {
			return TestRecord{Type: strings.ToUpper(fields[0]), Name: dns.Fqdn(fields[1])}, nil
		}
		if isRecordType(fields[1]) {
			return TestRecord{Type: strings.ToUpper(fields[1]), Name: dns.Fqdn(fields[0])}, nil
		}
		return TestRecord{}, fmt.Errorf("no valid record type in %q", s)
	default:
		return TestRecord{}, fmt.Errorf("invalid test record %q", s)
	}
}

func isRecordType(s string) bool {
	_, ok := dns.StringToType[strings.ToUpper(s)]
	return ok
}

// ReadTestRecords reads test records, one per line. Empty lines and lines starting with # are skipped.
func ReadTestRecords(r io.Reader) ([]TestRecord, error) {
	var records []TestRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := ParseTestRecord(line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadTestRecords loads test records from sources. A source is either http(s) URL of a file with
// records, a path to a local file with records optionally prefixed with @, or an inline record.
func LoadTestRecords(sources []string) ([]TestRecord, error) {
	var records []TestRecord
	for _, src := range sources {
		recs, err := loadSource(src)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func loadSource(src string) ([]TestRecord, error) {
	if isHTTPUrl(src) {
		resp, err := client.Get(src)
		if err != nil {
			return nil, fmt.Errorf("failed to download file '%s' with error '%v'", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("failed to download file '%s' with status '%s'", src, resp.Status)
		}
		return ReadTestRecords(resp.Body)
	}

	if path, ok := strings.CutPrefix(src, "@"); ok {
		return readFile(path)
	}
	if fi, err := os.Stat(src); err == nil && !fi.IsDir() {
		return readFile(src)
	}

	rec, err := ParseTestRecord(src)
	if err != nil {
		return nil, err
	}
	return []TestRecord{rec}, nil
}

func readFile(path string) ([]TestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	defer f.Close()
	return ReadTestRecords(f)
}

func isHTTPUrl(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
