package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/schema"
)

const rootAlias = "t0"

// Querier is the subset of the pgx pool the data source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// postgresDataSource translates query plans into single SELECT statements
// and executes them over pgx.
type postgresDataSource struct {
	db Querier
}

// NewPostgresDataSource creates the Postgres-backed query capability.
func NewPostgresDataSource(db Querier) DataSource {
	return &postgresDataSource{db: db}
}

func (ds *postgresDataSource) SQL(plan domain.QueryPlan) (string, []any, error) {
	return buildPlanSQL(plan)
}

func (ds *postgresDataSource) Execute(ctx context.Context, plan domain.QueryPlan) ([]map[string]any, error) {
	sql, args, err := buildPlanSQL(plan)
	if err != nil {
		return nil, err
	}

	rows, err := ds.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("execute report query: %w", err)
	}
	defer rows.Close()

	var result []map[string]any
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		line := make(map[string]any, len(fields))
		for i, field := range fields {
			line[string(field.Name)] = normalizeValue(values[i])
		}
		result = append(result, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver-specific values into plain Go types the
// formatter understands.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return value
	}
}

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) addArg(value any) int {
	b.args = append(b.args, value)
	return len(b.args)
}

func (b *sqlBuilder) placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}

// joinSet assigns one deterministic table alias per unique relation prefix
// and accumulates the LEFT JOIN chain reaching it.
type joinSet struct {
	aliases map[string]string
	clauses []string
}

func newJoinSet() *joinSet {
	return &joinSet{aliases: make(map[string]string)}
}

func (j *joinSet) register(info domain.PathInfo) {
	parent := rootAlias
	prefix := ""
	for _, hop := range info.Hops {
		if prefix == "" {
			prefix = hop.Relation
		} else {
			prefix += schema.PathDelimiter + hop.Relation
		}
		alias, ok := j.aliases[prefix]
		if !ok {
			alias = fmt.Sprintf("t%d", len(j.aliases)+1)
			j.aliases[prefix] = alias
			on := fmt.Sprintf("%s.%s = %s.id", parent, hop.FKColumn, alias)
			if hop.Reverse {
				on = fmt.Sprintf("%s.%s = %s.id", alias, hop.FKColumn, parent)
			}
			j.clauses = append(j.clauses, fmt.Sprintf("LEFT JOIN %s %s ON %s", hop.TargetTable, alias, on))
		}
		parent = alias
	}
}

// columnExpr renders the physical column reference of a canonical path.
func (j *joinSet) columnExpr(info domain.PathInfo) string {
	if len(info.Hops) == 0 {
		return rootAlias + "." + info.Column
	}
	segments := make([]string, len(info.Hops))
	for i, hop := range info.Hops {
		segments[i] = hop.Relation
	}
	return j.aliases[strings.Join(segments, schema.PathDelimiter)] + "." + info.Column
}

func quoteKey(key string) string {
	return `"` + strings.ReplaceAll(key, `"`, `""`) + `"`
}

// buildPlanSQL renders the plan as one SELECT, honoring the plan's
// construction order: derived fields, grouping, metrics, filters,
// projection, deduplication, ordering, limit.
func buildPlanSQL(plan domain.QueryPlan) (string, []any, error) {
	builder := &sqlBuilder{}
	joins := newJoinSet()
	for _, canonical := range plan.PathOrder {
		joins.register(plan.Paths[canonical])
	}

	pathExpr := func(canonical string) (string, error) {
		info, ok := plan.Paths[canonical]
		if !ok {
			return "", fmt.Errorf("plan references unresolved path %q", canonical)
		}
		return joins.columnExpr(info), nil
	}

	derivedByAlias := make(map[string]domain.DerivedField, len(plan.Derived))
	for _, d := range plan.Derived {
		derivedByAlias[d.Alias] = d
	}
	metricByAlias := make(map[string]domain.Metric, len(plan.Metrics))
	for _, m := range plan.Metrics {
		metricByAlias[m.Alias] = m
	}

	derivedExpr := func(d domain.DerivedField) (string, error) {
		expr, err := pathExpr(d.Path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("date_trunc('%s', %s)", d.Granularity, expr), nil
	}
	metricExpr := func(m domain.Metric) (string, error) {
		expr, err := pathExpr(m.Path)
		if err != nil {
			return "", err
		}
		if m.Distinct {
			return fmt.Sprintf("%s(DISTINCT %s)", strings.ToUpper(string(m.Function)), expr), nil
		}
		return fmt.Sprintf("%s(%s)", strings.ToUpper(string(m.Function)), expr), nil
	}

	// Select list follows the projection; every entry is aliased so result
	// keys match the plan's output map.
	var selects []string
	appendSelect := func(key domain.GroupKey) error {
		if key.IsAlias {
			if d, ok := derivedByAlias[key.Key]; ok {
				expr, err := derivedExpr(d)
				if err != nil {
					return err
				}
				selects = append(selects, expr+" AS "+quoteKey(key.Key))
				return nil
			}
			if m, ok := metricByAlias[key.Key]; ok {
				expr, err := metricExpr(m)
				if err != nil {
					return err
				}
				selects = append(selects, expr+" AS "+quoteKey(key.Key))
				return nil
			}
			return fmt.Errorf("projection references unknown alias %q", key.Key)
		}
		expr, err := pathExpr(key.Key)
		if err != nil {
			return err
		}
		selects = append(selects, expr+" AS "+quoteKey(key.Key))
		return nil
	}
	for _, key := range plan.Projection {
		if err := appendSelect(key); err != nil {
			return "", nil, err
		}
	}

	distinctRows := plan.Distinct && !plan.ScalarAggregate && len(plan.Metrics) == 0

	// Ordering is rendered before the statement is assembled because a
	// DISTINCT query may not order by an expression outside its select list;
	// such columns are pulled into the projection under their canonical path.
	var orderings []string
	added := make(map[string]bool)
	for _, order := range plan.OrderBy {
		expr := quoteKey(order.Key)
		if !order.IsAlias && !inProjection(plan, order.Key) {
			raw, err := pathExpr(order.Key)
			if err != nil {
				return "", nil, err
			}
			if distinctRows {
				if !added[order.Key] {
					added[order.Key] = true
					selects = append(selects, raw+" AS "+quoteKey(order.Key))
				}
			} else {
				expr = raw
			}
		}
		if order.Desc {
			expr += " DESC"
		}
		orderings = append(orderings, expr)
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	if distinctRows {
		sql.WriteString("DISTINCT ")
	}
	sql.WriteString(strings.Join(selects, ", "))
	sql.WriteString(" FROM ")
	sql.WriteString(plan.RootTable)
	sql.WriteString(" ")
	sql.WriteString(rootAlias)
	for _, clause := range joins.clauses {
		sql.WriteString(" ")
		sql.WriteString(clause)
	}

	if len(plan.Where) > 0 {
		clauses := make([]string, 0, len(plan.Where))
		for _, filter := range plan.Where {
			expr, err := pathExpr(filter.Path)
			if err != nil {
				return "", nil, err
			}
			clause, err := filterSQL(expr, filter, builder)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, clause)
		}
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(clauses, " AND "))
	}

	// Grouped queries group by output-column names; scalar aggregates have
	// no dimensions and therefore no GROUP BY.
	if len(plan.Metrics) > 0 && !plan.ScalarAggregate {
		keys := make([]string, 0, len(plan.GroupBy))
		for _, key := range plan.GroupBy {
			keys = append(keys, quoteKey(key.Key))
		}
		sql.WriteString(" GROUP BY ")
		sql.WriteString(strings.Join(keys, ", "))
	}

	if len(plan.Having) > 0 {
		clauses := make([]string, 0, len(plan.Having))
		for _, filter := range plan.Having {
			metric, ok := metricByAlias[filter.Alias]
			if !ok {
				return "", nil, fmt.Errorf("post-aggregation filter references unknown metric %q", filter.Alias)
			}
			expr, err := metricExpr(metric)
			if err != nil {
				return "", nil, err
			}
			clause, err := filterSQL(expr, filter, builder)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, clause)
		}
		sql.WriteString(" HAVING ")
		sql.WriteString(strings.Join(clauses, " AND "))
	}

	if len(orderings) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(orderings, ", "))
	}

	limitIdx := builder.addArg(plan.Limit)
	sql.WriteString(" LIMIT ")
	sql.WriteString(builder.placeholder(limitIdx))

	return sql.String(), builder.args, nil
}

func inProjection(plan domain.QueryPlan, key string) bool {
	for _, p := range plan.Projection {
		if p.Key == key {
			return true
		}
	}
	return false
}

// filterSQL renders one AND-combined restriction. Operators follow the
// lookup-suffix convention of the report editor.
func filterSQL(expr string, filter domain.FilterClause, builder *sqlBuilder) (string, error) {
	operator := strings.ToLower(strings.TrimSpace(filter.Operator))
	switch operator {
	case "", "exact":
		return fmt.Sprintf("%s = %s", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "iexact":
		return fmt.Sprintf("LOWER(%s::text) = LOWER(%s::text)", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "contains":
		return fmt.Sprintf("%s::text LIKE '%%' || %s || '%%'", expr, builder.placeholder(builder.addArg(escapeLike(filter.Value)))), nil
	case "icontains":
		return fmt.Sprintf("%s::text ILIKE '%%' || %s || '%%'", expr, builder.placeholder(builder.addArg(escapeLike(filter.Value)))), nil
	case "gt":
		return fmt.Sprintf("%s > %s", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "gte":
		return fmt.Sprintf("%s >= %s", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "lt":
		return fmt.Sprintf("%s < %s", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "lte":
		return fmt.Sprintf("%s <= %s", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "in":
		return fmt.Sprintf("%s = ANY(%s)", expr, builder.placeholder(builder.addArg(filter.Value))), nil
	case "isnull":
		if truthy(filter.Value) {
			return expr + " IS NULL", nil
		}
		return expr + " IS NOT NULL", nil
	default:
		return "", fmt.Errorf("unsupported filter operator %q", filter.Operator)
	}
}

// escapeLike neutralizes LIKE metacharacters in a containment operand so a
// literal % or _ in the filter value matches itself.
func escapeLike(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
