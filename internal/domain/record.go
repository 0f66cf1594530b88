package domain

import "time"

// ClimateRecord is one observation row from the climate file.
type ClimateRecord struct {
	Country     string
	Year        int
	Temperature float64

	// Extra holds passthrough columns keyed by header name.
	Extra map[string]string
}

// ForestRecord is one row from the forest-shares file. Country is empty until
// the row has been through NormalizeForest.
type ForestRecord struct {
	ISO3    string
	Trend   float64
	Country string

	Extra map[string]string
}

// JoinedRecord is one row of the inner join of climate and forest records on
// Country. Climate and Forest passthrough columns are kept separately; see
// JoinedColumns for how they are flattened.
type JoinedRecord struct {
	Country     string
	Year        int
	Temperature float64
	ISO3        string
	Trend       float64

	ClimateExtra map[string]string
	ForestExtra  map[string]string
}

// Tables is the pair of base tables as loaded from disk. It is read-only
// after loading.
type Tables struct {
	Climate []ClimateRecord
	Forest  []ForestRecord

	// ClimateColumns and ForestColumns list passthrough column names in
	// header order.
	ClimateColumns []string
	ForestColumns  []string

	LoadedAt time.Time
}
