package dedupe_test

import (
	"testing"
	"time"

	"github.com/okian/medalist/internal/domain/dedupe"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a new Tracker", t, func() {
		tr := dedupe.New(dedupe.WithCapacity(8))
		So(tr.Size(), ShouldEqual, 0)
		So(tr.Conflicts(), ShouldBeEmpty)

		Convey("When unique keys are recorded", func() {
			So(tr.SeenAndRecord("a", 0), ShouldBeFalse)
			So(tr.SeenAndRecord("b", 1), ShouldBeFalse)

			Convey("Then no conflicts are reported", func() {
				So(tr.Size(), ShouldEqual, 2)
				So(tr.Conflicts(), ShouldBeEmpty)
			})
		})

		Convey("When a key repeats", func() {
			tr.SeenAndRecord("a", 0)
			tr.SeenAndRecord("b", 1)
			So(tr.SeenAndRecord("a", 2), ShouldBeTrue)
			So(tr.SeenAndRecord("a", 4), ShouldBeTrue)

			conflicts := tr.Conflicts()

			Convey("Then the first occurrence wins and the rest are flagged", func() {
				So(conflicts, ShouldHaveLength, 2)
				So(conflicts, ShouldNotContainKey, 0)
				So(conflicts, ShouldContainKey, 2)
				So(conflicts, ShouldContainKey, 4)
			})

			Convey("Then each error lists every conflicting row", func() {
				err := conflicts[4]
				So(err.Kind, ShouldEqual, rowerr.DuplicateInBatch)
				So(err.Error(), ShouldContainSubstring, "rows 1, 3, 5")
				So(err.Fields["rows"], ShouldResemble, []int{1, 3, 5})
			})
		})
	})
}

func TestKeys(t *testing.T) {
	Convey("Athlete keys ignore case and padding", t, func() {
		So(dedupe.AthleteKey(" Anna@Example.com "), ShouldEqual, dedupe.AthleteKey("anna@example.com"))
	})

	Convey("Performance keys cover the full identity, discipline and date", t, func() {
		id := model.Identity{FirstName: "Anna", LastName: "Berg", Birthdate: model.NewDate(2010, time.June, 15)}
		day := model.NewDate(2025, time.June, 14)
		k := dedupe.PerformanceKey(id, model.DisciplineSpeed, day)

		So(dedupe.PerformanceKey(id, model.DisciplineSpeed, day), ShouldEqual, k)
		So(dedupe.PerformanceKey(id, model.DisciplineStrength, day), ShouldNotEqual, k)
		So(dedupe.PerformanceKey(id, model.DisciplineSpeed, model.NewDate(2025, time.June, 15)), ShouldNotEqual, k)

		other := id
		other.FirstName = "Ann"
		So(dedupe.PerformanceKey(other, model.DisciplineSpeed, day), ShouldNotEqual, k)
	})
}
