package query

import "github.com/rpattn/reportql/internal/domain"

// Compiler turns a validated query specification into an executable plan.
// All semantic checks already happened in the Validator; the only failure
// mode left is a function name the validator accepted but the compiler does
// not recognize, which is an internal defect.
type Compiler struct{}

// NewCompiler creates a query compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile builds the plan in a fixed, order-sensitive sequence: derived
// (truncated) fields, grouping key, metrics, filters, projection,
// deduplication, ordering, limit.
func (c *Compiler) Compile(resolved domain.ResolvedQuerySpec) (domain.QueryPlan, error) {
	plan := domain.QueryPlan{
		RootEntity: resolved.RootEntity,
		AppModel:   resolved.AppModel,
		RootTable:  resolved.RootTable,
		Limit:      resolved.Limit,
		Paths:      resolved.Paths,
		PathOrder:  resolved.PathOrder,
	}

	// Truncated fields come first: the grouping key references their alias,
	// not the raw path.
	for _, col := range resolved.Columns {
		if col.Aggregated() || !col.Truncated() {
			continue
		}
		switch col.Trunc {
		case domain.TruncationDay, domain.TruncationMonth, domain.TruncationYear:
		default:
			return domain.QueryPlan{}, domain.NewCompileDefect(string(col.Trunc),
				"truncation %q passed validation but is unknown to the compiler", col.Trunc)
		}
		plan.Derived = append(plan.Derived, domain.DerivedField{
			Alias:       col.Alias,
			Path:        col.CanonicalPath,
			Granularity: col.Trunc,
		})
	}

	// Grouping key: plain fields and truncated-field aliases, in column
	// order.
	for _, col := range resolved.Columns {
		switch {
		case col.Aggregated():
		case col.Truncated():
			plan.GroupBy = append(plan.GroupBy, domain.GroupKey{Key: col.Alias, IsAlias: true})
		default:
			plan.GroupBy = append(plan.GroupBy, domain.GroupKey{Key: col.CanonicalPath})
		}
	}

	// Metrics over the grouping key. min/max keep duplicates; every other
	// aggregation deduplicates the underlying path so join fan-out cannot
	// inflate the result.
	aggAliases := make(map[string]string)
	for _, col := range resolved.Columns {
		if !col.Aggregated() {
			continue
		}
		switch col.Agg {
		case domain.AggregationCount, domain.AggregationSum, domain.AggregationAvg,
			domain.AggregationMin, domain.AggregationMax:
		default:
			return domain.QueryPlan{}, domain.NewCompileDefect(string(col.Agg),
				"aggregation %q passed validation but is unknown to the compiler", col.Agg)
		}
		plan.Metrics = append(plan.Metrics, domain.Metric{
			Alias:    col.Alias,
			Path:     col.CanonicalPath,
			Function: col.Agg,
			Distinct: col.Agg.Distinct(),
		})
		aggAliases[col.Field] = col.Alias
	}

	// Filters are AND-combined. A filter on an aggregated column references
	// the metric alias and applies after aggregation; everything else
	// restricts the raw rows.
	for _, filter := range resolved.Filters {
		if alias, ok := aggAliases[filter.Field]; ok {
			plan.Having = append(plan.Having, domain.FilterClause{
				Alias:    alias,
				Operator: filter.Operator,
				Value:    filter.Coerced,
			})
			continue
		}
		plan.Where = append(plan.Where, domain.FilterClause{
			Path:     filter.CanonicalPath,
			Operator: filter.Operator,
			Value:    filter.Coerced,
		})
	}

	// Final projection: exactly the grouping keys and metric aliases, in
	// column order, then row deduplication.
	for _, col := range resolved.Columns {
		if col.Aggregated() || col.Truncated() {
			plan.Projection = append(plan.Projection, domain.GroupKey{Key: col.Alias, IsAlias: true})
			continue
		}
		plan.Projection = append(plan.Projection, domain.GroupKey{Key: col.CanonicalPath})
	}
	plan.Distinct = true

	// Ordering by alias when the field carries a function, by raw path
	// otherwise.
	for _, order := range resolved.Orderings {
		if alias, ok := resolved.AliasByField[order.Field]; ok {
			plan.OrderBy = append(plan.OrderBy, domain.OrderClause{Key: alias, IsAlias: true, Desc: order.Desc})
			continue
		}
		plan.OrderBy = append(plan.OrderBy, domain.OrderClause{Key: order.CanonicalPath, Desc: order.Desc})
	}

	// A query of nothing but metrics has no dimensions to group by; it must
	// run as a single-row aggregate.
	plan.ScalarAggregate = len(plan.GroupBy) == 0 && len(plan.Metrics) > 0

	for _, col := range resolved.Columns {
		key := col.CanonicalPath
		if col.Aggregated() || col.Truncated() {
			key = col.Alias
		}
		plan.Output = append(plan.Output, domain.OutputColumn{
			Key:     key,
			Label:   col.DisplayLabel(),
			Display: col.Display,
		})
	}

	return plan, nil
}
