package decode

import (
	"github.com/okian/medalist/internal/domain/model"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// Value variants.
const (
	KindString ValueKind = iota
	KindNumber
	KindDate
	KindInvalid
)

// Value is a typed cell. Exactly one of Str, Num, Date is meaningful,
// selected by Kind. Invalid values carry the reason and keep Raw.
type Value struct {
	Kind   ValueKind
	Raw    string
	Str    string
	Num    model.Score
	Date   model.Date
	Reason string
}

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Raw: s, Str: s} }

// Number returns a numeric value.
func Number(raw string, n model.Score) Value { return Value{Kind: KindNumber, Raw: raw, Num: n} }

// DateValue returns a date value.
func DateValue(raw string, d model.Date) Value { return Value{Kind: KindDate, Raw: raw, Date: d} }

// Invalid returns a value that failed coercion.
func Invalid(raw, reason string) Value { return Value{Kind: KindInvalid, Raw: raw, Reason: reason} }

// fieldKinds declares the coerced type of canonical fields. Fields not
// listed stay strings.
var fieldKinds = map[string]ValueKind{
	FieldBirthdate: KindDate,
	FieldDate:      KindDate,
	FieldValue:     KindNumber,
}

// coerce converts a trimmed cell into the Value variant of its field.
func coerce(field, raw string) Value {
	switch fieldKinds[field] {
	case KindDate:
		d, err := model.ParseDate(raw)
		if err != nil {
			return Invalid(raw, err.Error())
		}
		return DateValue(raw, d)
	case KindNumber:
		n, err := model.ParseScore(raw)
		if err != nil {
			return Invalid(raw, err.Error())
		}
		return Number(raw, n)
	default:
		return String(raw)
	}
}
