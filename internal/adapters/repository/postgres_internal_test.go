package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMapError(t *testing.T) {
	Convey("Given driver errors", t, func() {
		So(mapError(nil), ShouldBeNil)
		So(errors.Is(mapError(pgx.ErrNoRows), ErrNotFound), ShouldBeTrue)

		unique := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "performances_natural_key"}
		err := mapError(fmt.Errorf("insert: %w", unique))
		So(errors.Is(err, ErrConflict), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "performances_natural_key")

		fk := &pgconn.PgError{Code: pgForeignKeyViolation}
		So(errors.Is(mapError(fk), ErrHasDependents), ShouldBeTrue)

		other := &pgconn.PgError{Code: "42P01"}
		So(mapError(other), ShouldEqual, other)

		So(errors.Is(mapError(context.DeadlineExceeded), context.DeadlineExceeded), ShouldBeTrue)
	})
}

func TestPgValues(t *testing.T) {
	Convey("Numeric values keep two decimals", t, func() {
		n, err := pgNumeric(8999)
		So(err, ShouldBeNil)
		f, err := n.Float64Value()
		So(err, ShouldBeNil)
		So(f.Float64, ShouldAlmostEqual, 89.99, 0.0001)
	})

	Convey("Missing medals are NULL", t, func() {
		So(pgMedal("").Valid, ShouldBeFalse)
		So(pgMedal("GOLD").String, ShouldEqual, "GOLD")
	})
}
