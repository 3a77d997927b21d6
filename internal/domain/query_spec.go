package domain

// QuerySpec is the untrusted report definition submitted by clients. The
// JSON keys follow the report-editor wire format.
type QuerySpec struct {
	RootEntity string       `json:"fonte_principal"`
	Columns    []ColumnSpec `json:"colunas"`
	Filters    []FilterSpec `json:"filtros,omitempty"`
	Orderings  []OrderSpec  `json:"ordenacoes,omitempty"`
	Limit      int          `json:"limite,omitempty"`
}

// ColumnSpec selects one output column: a field path plus an optional label
// and an optional aggregation or truncation function.
type ColumnSpec struct {
	Field       string `json:"campo"`
	Label       string `json:"rotulo,omitempty"`
	Aggregation string `json:"agregacao,omitempty"`
	Truncation  string `json:"truncamento,omitempty"`
}

// DisplayLabel returns the column label, falling back to the raw field path.
func (c ColumnSpec) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// FilterSpec restricts the result set. Operator is a lookup suffix
// understood by the data source (exact, icontains, gte, ...).
type FilterSpec struct {
	Field    string `json:"campo"`
	Operator string `json:"operador"`
	Value    any    `json:"valor"`
}

// OrderSpec orders the result set by one field path.
type OrderSpec struct {
	Field     string `json:"campo"`
	Direction string `json:"ordem,omitempty"`
}
