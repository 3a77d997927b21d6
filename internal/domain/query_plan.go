package domain

// DerivedField is a truncated column computed before grouping; the grouping
// key references its alias, never the raw path.
type DerivedField struct {
	Alias       string
	Path        string // canonical field path
	Granularity Truncation
}

// Metric is one aggregate computed over the grouping key.
type Metric struct {
	Alias    string
	Path     string // canonical field path
	Function Aggregation
	Distinct bool
}

// GroupKey is one entry of the grouping key: either a plain canonical path
// or the alias of a derived field.
type GroupKey struct {
	Key     string
	IsAlias bool
}

// FilterClause is one AND-combined restriction. When Alias is set the filter
// targets a metric and belongs in the post-aggregation phase.
type FilterClause struct {
	Path     string // canonical field path (pre-aggregation filters)
	Alias    string // metric alias (post-aggregation filters)
	Operator string
	Value    any
}

// OrderClause orders the final rows by a projected alias or a raw path.
type OrderClause struct {
	Key     string
	IsAlias bool
	Desc    bool
}

// OutputColumn maps one raw result key to its presentation label and
// formatting category, in spec declaration order.
type OutputColumn struct {
	Key     string
	Label   string
	Display DisplayType
}

// QueryPlan is the executable form of a validated query specification. The
// data source consumes its primitives in a fixed order: derived fields,
// grouping key, metrics, filters, projection, deduplication, ordering,
// limit.
type QueryPlan struct {
	RootEntity string
	AppModel   string
	RootTable  string

	Derived []DerivedField
	GroupBy []GroupKey
	Metrics []Metric
	Where   []FilterClause
	Having  []FilterClause

	// Projection restricts the final output to the grouping keys and metric
	// aliases, in column-declaration order.
	Projection []GroupKey
	Distinct   bool
	OrderBy    []OrderClause
	Limit      int

	// ScalarAggregate marks a query with metrics and no dimensions; it must
	// execute as a single-row aggregate instead of a grouped query.
	ScalarAggregate bool

	Output    []OutputColumn
	Paths     map[string]PathInfo
	PathOrder []string
}
