package dnsbench

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTestRecord(t *testing.T) {
	tests := []struct {
		in      string
		want    TestRecord
		wantErr bool
	}{
		{in: "www.example.org", want: TestRecord{Type: "A", Name: "www.example.org."}},
		{in: "aaaa www.example.org.", want: TestRecord{Type: "AAAA", Name: "www.example.org."}},
		{in: "example.org MX", want: TestRecord{Type: "MX", Name: "example.org."}},
		{in: "foo bar", wantErr: true},
		{in: "A b c", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTestRecord(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadTestRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "# popular\nA google.com\n\nAAAA example.com\n")
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "records.txt")
	require.NoError(t, os.WriteFile(path, []byte("MX example.org.\n"), 0o600))

	records, err := LoadTestRecords([]string{ts.URL + "/records", path, "TXT example.net"})

	require.NoError(t, err)
	assert.Equal(t, []TestRecord{
		{Type: "A", Name: "google.com."},
		{Type: "AAAA", Name: "example.com."},
		{Type: "MX", Name: "example.org."},
		{Type: "TXT", Name: "example.net."},
	}, records)

	_, err = LoadTestRecords([]string{ts.URL + "/missing"})
	assert.ErrorContains(t, err, "404")

	records, err = LoadTestRecords([]string{"@" + path})
	require.NoError(t, err)
	assert.Equal(t, []TestRecord{{Type: "MX", Name: "example.org."}}, records)

	_, err = LoadTestRecords([]string{"@" + filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "failed to open file")
}
