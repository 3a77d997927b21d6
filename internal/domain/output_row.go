package domain

// OutputCell pairs a column label with its formatted display value. A nil
// value is a typed absence; the textual "-" sentinel is applied only when
// rendering HTML, not here.
type OutputCell struct {
	Label string
	Value any
}

// OutputRow is one presentation row, ordered exactly as the columns were
// declared in the original specification.
type OutputRow []OutputCell

// Labels returns the row's column labels in declaration order.
func (r OutputRow) Labels() []string {
	labels := make([]string, len(r))
	for i, cell := range r {
		labels[i] = cell.Label
	}
	return labels
}
