package decode_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
	. "github.com/smartystreets/goconvey/convey"
)

func decodeString(s string, f decode.Format, opts ...decode.Option) (*decode.Batch, error) {
	return decode.New(opts...).Decode(context.Background(), strings.NewReader(s), f)
}

func TestCanonical(t *testing.T) {
	Convey("Given header spellings", t, func() {
		cases := map[string]string{
			"firstname":      decode.FieldFirstName,
			" First Name ":   decode.FieldFirstName,
			"Vorname":        decode.FieldFirstName,
			"LASTNAME":       decode.FieldLastName,
			"Name":           decode.FieldLastName,
			"DOB":            decode.FieldBirthdate,
			"date of birth":  decode.FieldBirthdate,
			"birth_date":     decode.FieldBirthdate,
			"Sex":            decode.FieldGender,
			"m/f":            decode.FieldGender,
			"E-Mail":         decode.FieldEmail,
			"Übung":          decode.FieldDiscipline,
			"score":          decode.FieldValue,
			"Datum":          decode.FieldDate,
			"birthdate":      decode.FieldBirthdate,
			"email":          decode.FieldEmail,
			"\ufeffemail":    decode.FieldEmail,
			"Favourite Team": "favourite team",
		}
		for in, want := range cases {
			So(decode.Canonical(in), ShouldEqual, want)
		}
	})

	Convey("Every alias in the table resolves to its canonical field", t, func() {
		for canonical, aliases := range decode.Aliases {
			So(decode.Canonical(canonical), ShouldEqual, canonical)
			for _, a := range aliases {
				So(decode.Canonical(a), ShouldEqual, canonical)
				So(decode.Canonical(strings.ToUpper(a)), ShouldEqual, canonical)
			}
		}
	})
}

func TestDecodeCSV(t *testing.T) {
	Convey("Given an athlete CSV with aliased headers", t, func() {
		in := "Vorname, Nachname ,DOB,Sex,E-Mail,Club\n" +
			" Anna , Berg ,2010-06-15,female,anna@example.com,TSV\n" +
			"Ben,Kraus,15.06.2011,MALE,,\n"

		batch, err := decodeString(in, decode.FormatCSV)
		So(err, ShouldBeNil)
		So(batch.Header, ShouldResemble, []string{"firstName", "lastName", "birthdate", "gender", "email", "club"})
		So(batch.Rows, ShouldHaveLength, 2)

		Convey("Cells are trimmed and typed", func() {
			r := batch.Rows[0]
			So(r.Index, ShouldEqual, 0)
			So(r.Line(), ShouldEqual, 1)
			So(r.Err, ShouldBeNil)
			v, ok := r.Get(decode.FieldFirstName)
			So(ok, ShouldBeTrue)
			So(v.Kind, ShouldEqual, decode.KindString)
			So(v.Str, ShouldEqual, "Anna")
			bd, _ := r.Get(decode.FieldBirthdate)
			So(bd.Kind, ShouldEqual, decode.KindDate)
			So(bd.Date, ShouldResemble, model.NewDate(2010, time.June, 15))
			So(r.Text("club"), ShouldEqual, "TSV")
		})

		Convey("Empty cells are absent from Fields but kept in Original", func() {
			r := batch.Rows[1]
			_, ok := r.Get(decode.FieldEmail)
			So(ok, ShouldBeFalse)
			So(r.Original, ShouldContainKey, decode.FieldEmail)
			bd, _ := r.Get(decode.FieldBirthdate)
			So(bd.Date, ShouldResemble, model.NewDate(2011, time.June, 15))
		})
	})

	Convey("Given a performance CSV using comma decimals", t, func() {
		in := "firstName,lastName,birthdate,discipline,value,date\n" +
			"Anna,Berg,2010-06-15,SPEED,\"89,99\",2025-06-14\n" +
			"Anna,Berg,2010-06-15,SPEED,abc,2025-06-14\n"

		batch, err := decodeString(in, decode.FormatCSV)
		So(err, ShouldBeNil)

		v, _ := batch.Rows[0].Get(decode.FieldValue)
		So(v.Kind, ShouldEqual, decode.KindNumber)
		So(v.Num, ShouldEqual, model.Score(8999))

		bad, _ := batch.Rows[1].Get(decode.FieldValue)
		So(bad.Kind, ShouldEqual, decode.KindInvalid)
		So(bad.Raw, ShouldEqual, "abc")
		So(batch.Rows[1].Err, ShouldBeNil)
	})

	Convey("Given a semicolon separated file", t, func() {
		in := "firstName;lastName;birthdate;gender;email\nAnna;Berg;15.06.2010;FEMALE;a@b.de\n"
		batch, err := decodeString(in, decode.FormatAuto)
		So(err, ShouldBeNil)
		So(batch.Comma, ShouldEqual, ';')
		So(batch.Rows[0].Text(decode.FieldEmail), ShouldEqual, "a@b.de")
	})

	Convey("Given a tab separated file", t, func() {
		in := "firstName\tlastName\tbirthdate\tgender\temail\nMax\tMuster\t2010-06-15\tMALE\tmax@example.com\n"
		batch, err := decodeString(in, decode.FormatCSV)
		So(err, ShouldBeNil)
		So(batch.Comma, ShouldEqual, '\t')
		So(batch.Header, ShouldHaveLength, 5)
		So(batch.Rows[0].Text(decode.FieldLastName), ShouldEqual, "Muster")
		So(batch.Rows[0].Text(decode.FieldEmail), ShouldEqual, "max@example.com")
	})

	Convey("Given an unparsable birthdate", t, func() {
		in := "firstName,lastName,birthdate\nAnna,Berg,15/06/2010\n"
		batch, err := decodeString(in, decode.FormatCSV)
		So(err, ShouldBeNil)
		So(rowerr.KindOf(batch.Rows[0].Err), ShouldEqual, rowerr.InvalidDateFormat)
	})

	Convey("Given blank lines between records", t, func() {
		in := "firstName,lastName\nAnna,Berg\n,\nBen,Kraus\n"
		batch, err := decodeString(in, decode.FormatCSV)
		So(err, ShouldBeNil)
		So(batch.Rows, ShouldHaveLength, 2)
		So(batch.Rows[1].Index, ShouldEqual, 2)
	})

	Convey("Given a byte order mark", t, func() {
		batch, err := decodeString("\ufefffirstName,lastName\nAnna,Berg\n", decode.FormatCSV)
		So(err, ShouldBeNil)
		So(batch.Header[0], ShouldEqual, decode.FieldFirstName)
	})

	Convey("Given malformed framing", t, func() {
		Convey("Ragged rows abort the batch", func() {
			_, err := decodeString("firstName,lastName\nAnna\n", decode.FormatCSV)
			So(rowerr.KindOf(err), ShouldEqual, rowerr.MalformedInput)
		})
		Convey("A stray quote aborts the batch", func() {
			_, err := decodeString("firstName,lastName\n\"Anna,Berg\n", decode.FormatCSV)
			So(rowerr.KindOf(err), ShouldEqual, rowerr.MalformedInput)
		})
		Convey("Duplicate columns after aliasing abort the batch", func() {
			_, err := decodeString("firstname,vorname\nAnna,Anna\n", decode.FormatCSV)
			So(rowerr.KindOf(err), ShouldEqual, rowerr.MalformedInput)
		})
		Convey("Empty input aborts the batch", func() {
			_, err := decodeString("  \n", decode.FormatCSV)
			So(rowerr.KindOf(err), ShouldEqual, rowerr.MalformedInput)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := decode.New().Decode(ctx, strings.NewReader("a,b\n1,2\n"), decode.FormatCSV)
		So(err, ShouldEqual, context.Canceled)
	})
}

func TestDecodeJSON(t *testing.T) {
	Convey("Given a JSON array", t, func() {
		in := `[{"firstname":"Anna","lastName":"Berg","dob":"2010-06-15","sex":"female","email":"a@b.de"},
		        {"firstName":"Ben","value":87.5,"active":true,"note":null}]`
		batch, err := decodeString(in, decode.FormatAuto)
		So(err, ShouldBeNil)
		So(batch.Rows, ShouldHaveLength, 2)

		first := batch.Rows[0]
		So(first.Text(decode.FieldFirstName), ShouldEqual, "Anna")
		So(first.Text(decode.FieldGender), ShouldEqual, "female")

		second := batch.Rows[1]
		v, _ := second.Get(decode.FieldValue)
		So(v.Num, ShouldEqual, model.Score(8750))
		So(second.Text("active"), ShouldEqual, "true")
		_, ok := second.Get("note")
		So(ok, ShouldBeFalse)
	})

	Convey("Given a single JSON object", t, func() {
		batch, err := decodeString(`{"firstName":"Anna"}`, decode.FormatJSON)
		So(err, ShouldBeNil)
		So(batch.Rows, ShouldHaveLength, 1)
		So(batch.Header, ShouldResemble, []string{"firstName"})
	})

	Convey("Given invalid JSON documents", t, func() {
		for _, in := range []string{`{"firstName":`, `"text"`, `[1,2]`, `[{"a":{"b":1}}]`} {
			_, err := decodeString(in, decode.FormatJSON)
			So(rowerr.KindOf(err), ShouldEqual, rowerr.MalformedInput)
		}
	})
}

func TestFormatFromContentType(t *testing.T) {
	Convey("Content types map onto formats", t, func() {
		So(decode.FormatFromContentType("application/json; charset=utf-8"), ShouldEqual, decode.FormatJSON)
		So(decode.FormatFromContentType("text/csv"), ShouldEqual, decode.FormatCSV)
		So(decode.FormatFromContentType("application/vnd.ms-excel"), ShouldEqual, decode.FormatCSV)
		So(decode.FormatFromContentType(""), ShouldEqual, decode.FormatAuto)
	})
}
