package reporter

import (
	"testing"
	"time"

	"github.com/nsbench/nsbench/pkg/dnsbench"
	"github.com/nsbench/nsbench/pkg/nameserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_Summaries(t *testing.T) {
	fast := nameserver.New("192.0.2.1", nameserver.WithName("fast"))
	system := nameserver.New("192.0.2.2", nameserver.WithName("system"), nameserver.WithSystemPosition(0))
	excluded := nameserver.New("192.0.2.3", nameserver.WithName("excluded"))
	excluded.Disable("Failed LocalhostResponse: TransportTimeout")

	results := dnsbench.Results{
		{Server: system, Runs: [][]dnsbench.QueryResult{runOf(20, 20)}},
		{Server: fast, Runs: [][]dnsbench.QueryResult{runOf(5, 10, 10, 15)}},
	}

	summaries := New([]*nameserver.Nameserver{fast, system, excluded}, results).Summaries()

	require.Len(t, summaries, 3)

	assert.Equal(t, fast, summaries[0].Server)
	assert.Equal(t, 0, summaries[0].Position)
	assert.True(t, summaries[0].Scored())
	assert.False(t, summaries[0].IsReference)
	require.NotNil(t, summaries[0].DiffPercent)
	assert.InDelta(t, 100.0, *summaries[0].DiffPercent, 0.0001)
	assert.Equal(t, 5*time.Millisecond, summaries[0].Min)
	assert.Equal(t, 15*time.Millisecond, summaries[0].Max)
	assert.GreaterOrEqual(t, summaries[0].P50, summaries[0].Min)
	assert.LessOrEqual(t, summaries[0].P50, summaries[0].P90)
	assert.LessOrEqual(t, summaries[0].P90, summaries[0].Max)
	assert.Equal(t, 4, summaries[0].TotalCount)

	assert.Equal(t, system, summaries[1].Server)
	assert.Equal(t, 1, summaries[1].Position)
	assert.True(t, summaries[1].IsReference)
	assert.Nil(t, summaries[1].DiffPercent)

	assert.Equal(t, excluded, summaries[2].Server)
	assert.Equal(t, -1, summaries[2].Position)
	assert.False(t, summaries[2].Scored())
	assert.Nil(t, summaries[2].DiffPercent)
}

func TestAggregator_Compare(t *testing.T) {
	tests := []struct {
		name          string
		queries       int
		withReference bool
		wantTitle     string
		wantSubtitle  string
		wantReference string
	}{
		{
			name:          "faster than reference",
			queries:       MinRelevantCount,
			withReference: true,
			wantTitle:     "25.0%",
			wantSubtitle:  "Faster",
			wantReference: "system",
		},
		{
			name:          "too few queries",
			queries:       MinRelevantCount - 1,
			withReference: true,
			wantTitle:     "Undecided",
			wantSubtitle:  "Too few tests (needs 50)",
		},
		{
			name:         "nothing to compare against",
			queries:      MinRelevantCount,
			wantTitle:    "Undecided",
			wantSubtitle: "Not enough servers to compare.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := nameserver.New("192.0.2.1", nameserver.WithName("best"))
			servers := []*nameserver.Nameserver{best}
			results := dnsbench.Results{
				{Server: best, Runs: [][]dnsbench.QueryResult{uniformRun(tt.queries, 80*time.Millisecond)}},
			}
			if tt.withReference {
				system := nameserver.New("192.0.2.2", nameserver.WithName("system"), nameserver.WithSystemPosition(0))
				servers = append(servers, system)
				results = append(results, &dnsbench.ServerResults{
					Server: system,
					Runs:   [][]dnsbench.QueryResult{uniformRun(tt.queries, 100*time.Millisecond)},
				})
			}

			c := New(servers, results).Compare()

			assert.Equal(t, tt.wantTitle, c.Title)
			assert.Equal(t, tt.wantSubtitle, c.Subtitle)
			require.NotNil(t, c.Best)
			assert.Equal(t, "best", c.Best.Name)
			if tt.wantReference == "" {
				assert.Nil(t, c.Reference)
			} else {
				require.NotNil(t, c.Reference)
				assert.Equal(t, tt.wantReference, c.Reference.Name)
			}
		})
	}
}

func TestAggregator_Compare_noResults(t *testing.T) {
	c := New(nil, nil).Compare()

	assert.Equal(t, "Undecided", c.Title)
	assert.Nil(t, c.Best)
}
