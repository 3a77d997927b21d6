package query

import (
	"strings"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/schema"
)

// MaxLimit caps the number of rows any single report table may request.
// Out-of-range limits are clamped silently, never rejected.
const MaxLimit = 1000

// Validator checks an untrusted query specification against the report
// schema and enriches it with resolved types, display types and aliases.
type Validator struct {
	schema domain.Schema
}

// NewValidator creates a validator over the process-wide, read-only schema.
func NewValidator(s domain.Schema) *Validator {
	return &Validator{schema: s}
}

// Validate resolves and annotates every element of the specification. It is
// a pure function of the schema and the input; path resolutions are cached
// for the duration of this single pass.
func (v *Validator) Validate(spec domain.QuerySpec) (domain.ResolvedQuerySpec, error) {
	entity, ok := v.schema.Entity(spec.RootEntity)
	if !ok {
		return domain.ResolvedQuerySpec{}, domain.NewSchemaError(spec.RootEntity,
			"unknown root entity %q", spec.RootEntity)
	}
	if len(spec.Columns) == 0 {
		return domain.ResolvedQuerySpec{}, domain.NewValidationError(
			"query for %q specifies no columns", spec.RootEntity)
	}

	resolver, err := schema.NewPathResolver(v.schema, spec.RootEntity)
	if err != nil {
		return domain.ResolvedQuerySpec{}, err
	}

	resolved := domain.ResolvedQuerySpec{
		RootEntity:   spec.RootEntity,
		AppModel:     entity.AppModel,
		RootTable:    entity.TableName(),
		Limit:        clampLimit(spec.Limit),
		AliasByField: make(map[string]string),
		Paths:        make(map[string]domain.PathInfo),
	}

	record := func(info domain.PathInfo) {
		if _, seen := resolved.Paths[info.Canonical]; !seen {
			resolved.Paths[info.Canonical] = info
			resolved.PathOrder = append(resolved.PathOrder, info.Canonical)
		}
	}

	for _, col := range spec.Columns {
		info, err := resolver.Resolve(col.Field)
		if err != nil {
			return domain.ResolvedQuerySpec{}, err
		}
		record(info)

		rc := domain.ResolvedColumn{
			ColumnSpec:    col,
			CanonicalPath: info.Canonical,
			ResolvedType:  info.Type,
		}

		switch {
		// Aggregation takes precedence when a column carries both functions.
		case col.Aggregation != "":
			agg, err := domain.ParseAggregation(col.Aggregation)
			if err != nil {
				return domain.ResolvedQuerySpec{}, err
			}
			rc.Agg = agg
			rc.Alias = flatAlias(info.Canonical, string(agg))
			rc.Display = domain.DisplayNumber
			resolved.AliasByField[col.Field] = rc.Alias
		case col.Truncation != "":
			trunc, err := domain.ParseTruncation(col.Truncation)
			if err != nil {
				return domain.ResolvedQuerySpec{}, err
			}
			if !info.Type.Temporal() {
				return domain.ResolvedQuerySpec{}, domain.NewFunctionError(col.Truncation,
					"truncation %q requires a date or datetime field, but %q has type %s",
					col.Truncation, col.Field, info.Type)
			}
			rc.Trunc = trunc
			rc.Alias = flatAlias(info.Canonical, string(trunc))
			rc.Display = trunc.Display()
			resolved.AliasByField[col.Field] = rc.Alias
		default:
			rc.Alias = flatAlias(info.Canonical, "")
			rc.Display = domain.DisplayForField(info.Type)
		}

		resolved.Columns = append(resolved.Columns, rc)
	}

	for _, filter := range spec.Filters {
		info, err := resolver.Resolve(filter.Field)
		if err != nil {
			return domain.ResolvedQuerySpec{}, err
		}
		record(info)
		resolved.Filters = append(resolved.Filters, domain.ResolvedFilter{
			FilterSpec:    filter,
			CanonicalPath: info.Canonical,
			ResolvedType:  info.Type,
			Coerced:       coerceFilterValue(info.Type, filter.Value),
		})
	}

	for _, order := range spec.Orderings {
		info, err := resolver.Resolve(order.Field)
		if err != nil {
			return domain.ResolvedQuerySpec{}, err
		}
		record(info)
		resolved.Orderings = append(resolved.Orderings, domain.ResolvedOrder{
			OrderSpec:     order,
			CanonicalPath: info.Canonical,
			Desc:          strings.EqualFold(order.Direction, "desc"),
		})
	}

	return resolved, nil
}

// flatAlias derives the machine-readable key for a column: the canonical
// path with delimiters flattened, plus the function name when one applies.
// Alias derivation is injective given schema field-name uniqueness, so
// collisions within one spec cannot occur.
func flatAlias(canonical, function string) string {
	alias := strings.ReplaceAll(canonical, schema.PathDelimiter, "_")
	if function != "" {
		alias += "_" + function
	}
	return alias
}

// coerceFilterValue converts string forms of boolean operands; report
// editors serialize checkbox state as "true"/"false".
func coerceFilterValue(t domain.FieldType, value any) any {
	if t != domain.FieldTypeBool {
		return value
	}
	if s, ok := value.(string); ok {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return value
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
