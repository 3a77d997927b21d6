package domain

import "strings"

// FieldType represents the semantic type of a schema field.
type FieldType string

const (
	FieldTypeInt      FieldType = "int"
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBool     FieldType = "bool"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
)

// Temporal reports whether values of this type carry a date component,
// which is what truncation requires.
func (t FieldType) Temporal() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime
}

// DisplayType is the formatting category applied when rendering a value for
// humans. For plain columns it mirrors the field type; aggregations always
// display as number and truncations as date/month/year.
type DisplayType string

const (
	DisplayNumber DisplayType = "number"
	DisplayDate   DisplayType = "date"
	DisplayMonth  DisplayType = "month"
	DisplayYear   DisplayType = "year"
)

// DisplayForField returns the display type of an unaggregated, untruncated
// column.
func DisplayForField(t FieldType) DisplayType {
	return DisplayType(t)
}

// Aggregation enumerates the metric functions a column may request.
type Aggregation string

const (
	AggregationCount Aggregation = "count"
	AggregationSum   Aggregation = "sum"
	AggregationAvg   Aggregation = "avg"
	AggregationMin   Aggregation = "min"
	AggregationMax   Aggregation = "max"
)

// ParseAggregation resolves a client-supplied aggregation name. Names are
// matched case-insensitively because historical report definitions used
// capitalized forms.
func ParseAggregation(name string) (Aggregation, error) {
	switch Aggregation(strings.ToLower(strings.TrimSpace(name))) {
	case AggregationCount:
		return AggregationCount, nil
	case AggregationSum:
		return AggregationSum, nil
	case AggregationAvg:
		return AggregationAvg, nil
	case AggregationMin:
		return AggregationMin, nil
	case AggregationMax:
		return AggregationMax, nil
	default:
		return "", NewFunctionError(name, "unknown aggregation function %q", name)
	}
}

// Distinct reports whether the aggregation deduplicates the underlying
// values. count/sum/avg deduplicate to avoid join fan-out inflating results;
// min/max are unaffected by duplicates.
func (a Aggregation) Distinct() bool {
	return a != AggregationMin && a != AggregationMax
}

// Truncation enumerates the date-bucketing granularities a column may
// request.
type Truncation string

const (
	TruncationDay   Truncation = "day"
	TruncationMonth Truncation = "month"
	TruncationYear  Truncation = "year"
)

// ParseTruncation resolves a client-supplied truncation name.
func ParseTruncation(name string) (Truncation, error) {
	switch Truncation(strings.ToLower(strings.TrimSpace(name))) {
	case TruncationDay:
		return TruncationDay, nil
	case TruncationMonth:
		return TruncationMonth, nil
	case TruncationYear:
		return TruncationYear, nil
	default:
		return "", NewFunctionError(name, "unknown truncation function %q", name)
	}
}

// Display returns the display type of a column truncated at this
// granularity.
func (t Truncation) Display() DisplayType {
	switch t {
	case TruncationMonth:
		return DisplayMonth
	case TruncationYear:
		return DisplayYear
	default:
		return DisplayDate
	}
}
