package validate

import "github.com/okian/medalist/internal/domain/model"

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithDisciplines sets the discipline enum rows are checked against.
func WithDisciplines(set model.DisciplineSet) Option {
	return func(v *Validator) {
		v.disciplines = set
	}
}
