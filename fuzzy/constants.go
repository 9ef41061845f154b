package fuzzy

// Scoring constants tuning the heat map and subsequence-alignment score.
const (
	whitespaceFactor = 5
	whitespaceReduce = 2
	classFactor      = 3
	classReduce      = 2

	distWeight = -10
	heatWeight = 5

	// MaxLen bounds how many leading characters of a line are indexed for
	// scoring purposes. Positions at or beyond MaxLen are not indexed.
	MaxLen = 80

	// MatchNumber is the maximum number of matches query() returns.
	MatchNumber = 10
)
