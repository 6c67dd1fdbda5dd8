package decode

import "strings"

// Canonical field names.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldBirthdate  = "birthdate"
	FieldGender     = "gender"
	FieldEmail      = "email"
	FieldDiscipline = "discipline"
	FieldValue      = "value"
	FieldDate       = "date"
)

// Aliases maps each canonical field to the lower-cased header spellings
// accepted for it. The canonical name itself is always accepted.
var Aliases = map[string][]string{
	FieldFirstName:  {"firstname", "first name", "first_name", "vorname"},
	FieldLastName:   {"lastname", "last name", "last_name", "nachname", "name"},
	FieldBirthdate:  {"birth date", "birth_date", "date of birth", "dob", "geburtsdatum"},
	FieldGender:     {"sex", "m/f", "geschlecht"},
	FieldEmail:      {"e-mail", "mail"},
	FieldDiscipline: {"übung", "uebung"},
	FieldValue:      {"score", "ergebnis"},
	FieldDate:       {"datum", "performance date"},
}

// headerIndex is the reverse of Aliases. Built once, never mutated.
var headerIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, list := range Aliases {
		idx[strings.ToLower(canonical)] = canonical
		for _, alias := range list {
			idx[alias] = canonical
		}
	}
	return idx
}()

// Canonical trims and lower-cases a header and maps it through the alias
// table. Unknown headers are returned trimmed and lower-cased.
func Canonical(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if c, ok := headerIndex[h]; ok {
		return c
	}
	return h
}
