package domain

import "strings"

// FieldDef describes one navigable field of an entity. The JSON keys follow
// the operator-authored schema format.
type FieldDef struct {
	Label string    `json:"rotulo"`
	Name  string    `json:"valor"`
	Type  FieldType `json:"tipo"`
}

// RelationDef describes one outbound relation of an entity. RelationField is
// the traversal identifier used inside field paths; TargetEntity must name
// another schema entry.
//
// FKColumn and Reverse are join hints for the relational data source: by
// default the foreign key is assumed to live on the source row as
// "<campo_relacao>_id"; a reverse relation places it on the target row
// instead.
type RelationDef struct {
	FriendlyName  string `json:"nome_amigavel"`
	RelationField string `json:"campo_relacao"`
	TargetEntity  string `json:"model_destino"`
	FKColumn      string `json:"coluna_fk,omitempty"`
	Reverse       bool   `json:"inversa,omitempty"`
}

// ForeignKey returns the configured FK column or the conventional default.
func (r RelationDef) ForeignKey() string {
	if r.FKColumn != "" {
		return r.FKColumn
	}
	return r.RelationField + "_id"
}

// Entity is one named data collection in the report schema.
type Entity struct {
	AppModel  string        `json:"app_model"`
	Table     string        `json:"tabela,omitempty"`
	Fields    []FieldDef    `json:"campos"`
	Relations []RelationDef `json:"conexoes,omitempty"`

	fieldsByName     map[string]FieldDef
	relationsByField map[string]RelationDef
}

// Field looks up a field definition by its physical name.
func (e *Entity) Field(name string) (FieldDef, bool) {
	f, ok := e.fieldsByName[name]
	return f, ok
}

// Relation looks up a relation definition by its traversal identifier.
func (e *Entity) Relation(field string) (RelationDef, bool) {
	r, ok := e.relationsByField[field]
	return r, ok
}

// TableName returns the physical table backing the entity. When the schema
// does not name one explicitly it is derived from the app_model identifier
// ("base.Base" becomes "base_base").
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return strings.ToLower(strings.ReplaceAll(e.AppModel, ".", "_"))
}

// Schema maps entity names to their definitions. It is loaded once at
// startup and treated as immutable for the lifetime of the process.
type Schema map[string]*Entity

// Entity looks up an entity by name.
func (s Schema) Entity(name string) (*Entity, bool) {
	e, ok := s[name]
	return e, ok
}

// Init builds the per-entity lookup indexes and checks schema integrity:
// field and relation names must be unique within their entity and every
// relation target must exist in the schema.
func (s Schema) Init() error {
	for name, entity := range s {
		if entity == nil {
			return NewSchemaError(name, "entity %q has no definition", name)
		}
		entity.fieldsByName = make(map[string]FieldDef, len(entity.Fields))
		for _, f := range entity.Fields {
			if _, dup := entity.fieldsByName[f.Name]; dup {
				return NewSchemaError(f.Name, "entity %q declares field %q twice", name, f.Name)
			}
			entity.fieldsByName[f.Name] = f
		}

		entity.relationsByField = make(map[string]RelationDef, len(entity.Relations))
		for _, r := range entity.Relations {
			if _, dup := entity.relationsByField[r.RelationField]; dup {
				return NewSchemaError(r.RelationField, "entity %q declares relation %q twice", name, r.RelationField)
			}
			if _, ok := s[r.TargetEntity]; !ok {
				return NewSchemaError(r.RelationField, "relation %q on entity %q targets unknown entity %q", r.RelationField, name, r.TargetEntity)
			}
			entity.relationsByField[r.RelationField] = r
		}
	}
	return nil
}
