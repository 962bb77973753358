package types

// StatCount is one statistics bucket: the number of non-test identifiers
// created in a calendar month by one owner under one scheme, split by
// whether both citation fields were mapped.
type StatCount struct {
	Month       string // Calendar month of creation, "YYYY-MM", UTC.
	Owner       string // Owning agent identifier.
	Type        string // Uppercased scheme, e.g. "ARK", "DOI".
	HasMetadata bool   // Both MappedTitle and MappedCreator present.
	Count       int64
}

// StatsFilter constrains a statistics query. Zero-valued fields do not
// constrain; HasMetadata is a pointer so that false is expressible.
type StatsFilter struct {
	Month       string
	Owner       string
	Type        string
	HasMetadata *bool
}

// MonthStat is one row of the monthly activity table: counts for a calendar
// month aggregated over the statistics buckets. ByType keys are uppercased
// schemes. Months with no activity appear with zero counts so the table has
// no gaps.
type MonthStat struct {
	Month        string           // Calendar month, "YYYY-MM".
	ByType       map[string]int64 // Identifier count per uppercased scheme.
	WithMetadata int64            // Identifiers with both citation fields mapped.
	Total        int64
}
