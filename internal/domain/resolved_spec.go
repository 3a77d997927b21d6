package domain

// PathHop records one validated relation traversal inside a field path.
type PathHop struct {
	Relation    string // traversal identifier on the source entity
	FromEntity  string
	ToEntity    string
	TargetTable string // physical table of the target entity
	FKColumn    string
	Reverse     bool
}

// PathInfo is the physical resolution of one field path: the canonical
// path string, the terminal column and the relation hops leading to it.
type PathInfo struct {
	Canonical string
	Column    string
	Type      FieldType
	Hops      []PathHop
}

// ResolvedColumn is a ColumnSpec enriched by validation.
type ResolvedColumn struct {
	ColumnSpec
	CanonicalPath string
	ResolvedType  FieldType
	Display       DisplayType
	Alias         string
	Agg           Aggregation // empty when the column is a plain dimension
	Trunc         Truncation  // empty when the column is not truncated
}

// Aggregated reports whether the column computes a metric.
func (c ResolvedColumn) Aggregated() bool { return c.Agg != "" }

// Truncated reports whether the column buckets a temporal value.
func (c ResolvedColumn) Truncated() bool { return c.Trunc != "" }

// ResolvedFilter is a FilterSpec enriched by validation; Value holds the
// type-coerced filter operand.
type ResolvedFilter struct {
	FilterSpec
	CanonicalPath string
	ResolvedType  FieldType
	Coerced       any
}

// ResolvedOrder is an OrderSpec enriched by validation.
type ResolvedOrder struct {
	OrderSpec
	CanonicalPath string
	Desc          bool
}

// ResolvedQuerySpec is the validated, enriched form of a QuerySpec. It is a
// pure function of the schema and the input spec.
type ResolvedQuerySpec struct {
	RootEntity string
	AppModel   string
	RootTable  string
	Columns    []ResolvedColumn
	Filters    []ResolvedFilter
	Orderings  []ResolvedOrder
	Limit      int

	// AliasByField maps the raw field path string of each aggregated or
	// truncated column to its generated alias, for ordering and filter
	// references.
	AliasByField map[string]string

	// Paths collects the physical resolution of every field path the spec
	// touches, keyed by canonical path.
	Paths map[string]PathInfo

	// PathOrder records canonical paths in first-resolution order so later
	// stages can iterate deterministically.
	PathOrder []string
}
