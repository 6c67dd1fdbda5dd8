package rowerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/okian/medalist/internal/domain/rowerr"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRowError(t *testing.T) {
	Convey("Given a classified error", t, func() {
		err := rowerr.New(rowerr.AgeRestriction, "age %d outside [%d,%d]", 12, 15, 30).
			With("age", 12)

		So(err.Error(), ShouldEqual, "AgeRestriction: age 12 outside [15,30]")
		So(err.Fields["age"], ShouldEqual, 12)

		Convey("KindOf sees through wrapping", func() {
			wrapped := fmt.Errorf("row 3: %w", err)
			So(rowerr.KindOf(wrapped), ShouldEqual, rowerr.AgeRestriction)
			So(rowerr.Is(wrapped, rowerr.AgeRestriction), ShouldBeTrue)
			So(rowerr.Is(wrapped, rowerr.InvalidScore), ShouldBeFalse)
		})

		Convey("Unclassified errors are Internal", func() {
			So(rowerr.KindOf(errors.New("boom")), ShouldEqual, rowerr.Internal)
		})
	})

	Convey("Wrap keeps the cause reachable", t, func() {
		cause := errors.New("unique violation")
		err := rowerr.Wrap(rowerr.DuplicateEntry, cause)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "DuplicateEntry: unique violation")
	})

	Convey("Kinds map onto categories and statuses", t, func() {
		So(rowerr.MalformedInput.Category(), ShouldEqual, rowerr.CategoryInput)
		So(rowerr.InvalidEmail.Category(), ShouldEqual, rowerr.CategoryRow)
		So(rowerr.StoreTimeout.Category(), ShouldEqual, rowerr.CategoryPersistence)
		So(rowerr.StoreUnavailable.Category(), ShouldEqual, rowerr.CategoryFatal)
		So(rowerr.Internal.Category(), ShouldEqual, rowerr.CategoryPersistence)

		So(rowerr.DuplicateEntry.HTTPStatus(), ShouldEqual, http.StatusConflict)
		So(rowerr.HasDependentRecords.HTTPStatus(), ShouldEqual, http.StatusConflict)
		So(rowerr.MalformedInput.HTTPStatus(), ShouldEqual, http.StatusBadRequest)
		So(rowerr.StoreUnavailable.HTTPStatus(), ShouldEqual, http.StatusServiceUnavailable)
	})
}
