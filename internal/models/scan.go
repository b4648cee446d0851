package models

// RSFlag labels relative-strength performance against the index.
type RSFlag string

const (
	RSOutperform   RSFlag = "Outperform"
	RSUnderperform RSFlag = "Underperform"
)

// ScanResult is one matching instrument from a scan run. Results are
// ephemeral and rebuilt on every run.
type ScanResult struct {
	Symbol            string
	Company           string
	LastPrice         float64
	EMA20             float64
	EMA50             float64
	RSI14             float64
	RSScore           float64
	RSFlag            RSFlag
	MatchedConditions []string
}

// ScanSkip records an instrument excluded from a scan run with the
// reason, so partial failures stay inspectable instead of swallowed.
type ScanSkip struct {
	Symbol string
	Reason string
}

// DistributionReport holds the counters and warnings produced by the
// distribution/reversal detector over a trailing window.
type DistributionReport struct {
	Lookback        int
	UpDays          int
	DownDays        int
	UpDayPercent    float64
	MaxDayGainPct   float64
	MaxSpread       float64
	ExhaustionGap   bool
	VolumeReversal  bool
	Churning        bool
	HeavyVolumeDown bool
	Warnings        []string
}
