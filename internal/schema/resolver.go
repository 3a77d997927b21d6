package schema

import (
	"strings"

	"github.com/rpattn/reportql/internal/domain"
)

// PathDelimiter separates the segments of a field path
// ("unidades__id" traverses relation "unidades" and reads field "id").
const PathDelimiter = "__"

// PathResolver resolves segmented field references against the schema,
// validating every relation hop. A resolver is scoped to a single
// validation pass; its cache must not outlive that pass.
type PathResolver struct {
	schema domain.Schema
	root   string
	cache  map[string]domain.PathInfo
}

// NewPathResolver creates a resolver rooted at the given entity. The root
// entity must exist in the schema.
func NewPathResolver(s domain.Schema, rootEntity string) (*PathResolver, error) {
	if _, ok := s.Entity(rootEntity); !ok {
		return nil, domain.NewSchemaError(rootEntity, "unknown root entity %q", rootEntity)
	}
	return &PathResolver{
		schema: s,
		root:   rootEntity,
		cache:  make(map[string]domain.PathInfo),
	}, nil
}

// Resolve translates a field path into its physical resolution. All
// segments but the last must name relations on the entity reached so far;
// the last must name a field. Traversal is bounded by path length, so a
// path may legally revisit an entity (self-relations).
func (r *PathResolver) Resolve(path string) (domain.PathInfo, error) {
	if cached, ok := r.cache[path]; ok {
		return cached, nil
	}

	segments := strings.Split(path, PathDelimiter)
	current := r.root
	canonical := make([]string, 0, len(segments))
	hops := make([]domain.PathHop, 0, len(segments)-1)

	for _, segment := range segments[:len(segments)-1] {
		entity, _ := r.schema.Entity(current)
		relation, ok := entity.Relation(segment)
		if !ok {
			return domain.PathInfo{}, domain.NewSchemaError(path,
				"relation %q does not exist or is not allowed on entity %q", segment, current)
		}
		target, _ := r.schema.Entity(relation.TargetEntity)
		hops = append(hops, domain.PathHop{
			Relation:    relation.RelationField,
			FromEntity:  current,
			ToEntity:    relation.TargetEntity,
			TargetTable: target.TableName(),
			FKColumn:    relation.ForeignKey(),
			Reverse:     relation.Reverse,
		})
		canonical = append(canonical, relation.RelationField)
		current = relation.TargetEntity
	}

	terminal := segments[len(segments)-1]
	entity, _ := r.schema.Entity(current)
	field, ok := entity.Field(terminal)
	if !ok {
		return domain.PathInfo{}, domain.NewSchemaError(path,
			"field %q not found on entity %q", terminal, current)
	}
	canonical = append(canonical, field.Name)

	info := domain.PathInfo{
		Canonical: strings.Join(canonical, PathDelimiter),
		Column:    field.Name,
		Type:      field.Type,
		Hops:      hops,
	}
	r.cache[path] = info
	return info, nil
}
