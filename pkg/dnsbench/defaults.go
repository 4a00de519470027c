package dnsbench

const (
	// DefaultRunCount is a default number of runs performed on each nameserver.
	DefaultRunCount = 1

	// DefaultQueryCount is a default number of queries per run.
	DefaultQueryCount = 250

	// DefaultConcurrency is a default number of servers queried in parallel for a single record.
	DefaultConcurrency = 1

	// DefaultQueryType is a default type for records if no other is specified.
	DefaultQueryType = "A"

	// DefaultSelectMode is a default test record selection algorithm.
	DefaultSelectMode = SelectAutomatic

	// MaxWeightedRepeat is how many times a weighted distribution may repeat a single record.
	MaxWeightedRepeat = 3
)
