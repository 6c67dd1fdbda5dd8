package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var anna = model.Athlete{
	FirstName: "Anna",
	LastName:  "Berg",
	Birthdate: model.NewDate(2010, time.June, 15),
	Gender:    model.GenderFemale,
	Email:     "anna@example.com",
}

// contract exercises the Store semantics every implementation must honor.
func contract(newStore func() repository.Store) {
	ctx := context.Background()

	Convey("Athletes", func() {
		s := newStore()
		created, err := s.CreateAthlete(ctx, anna)
		So(err, ShouldBeNil)
		So(created.ID, ShouldBeGreaterThan, 0)

		Convey("are found by id, email and identity", func() {
			got, err := s.AthleteByID(ctx, created.ID)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, created)

			got, err = s.AthleteByEmail(ctx, anna.Email)
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, created.ID)

			got, err = s.AthleteByIdentity(ctx, anna.Identity())
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, created.ID)
		})

		Convey("unknown lookups return ErrNotFound", func() {
			_, err := s.AthleteByID(ctx, created.ID+100)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.AthleteByEmail(ctx, "nobody@example.com")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			other := anna.Identity()
			other.Birthdate = model.NewDate(2010, time.June, 16)
			_, err = s.AthleteByIdentity(ctx, other)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("emails are unique", func() {
			dup := anna
			dup.FirstName = "Annette"
			_, err := s.CreateAthlete(ctx, dup)
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})

		Convey("updates keep the email", func() {
			upd := created
			upd.FirstName = "Anne"
			upd.Email = "other@example.com"
			got, err := s.UpdateAthlete(ctx, upd)
			So(err, ShouldBeNil)
			So(got.FirstName, ShouldEqual, "Anne")
			So(got.Email, ShouldEqual, anna.Email)

			upd.ID = created.ID + 100
			_, err = s.UpdateAthlete(ctx, upd)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("lists are ordered by id and skip unknown ids", func() {
			ben := anna
			ben.FirstName, ben.Email = "Ben", "ben@example.com"
			second, err := s.CreateAthlete(ctx, ben)
			So(err, ShouldBeNil)

			all, err := s.ListAthletes(ctx)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 2)
			So(all[0].ID, ShouldEqual, created.ID)

			some, err := s.AthletesByIDs(ctx, []int64{second.ID, created.ID + 100, created.ID})
			So(err, ShouldBeNil)
			So(some, ShouldHaveLength, 2)
			So(some[0].ID, ShouldEqual, created.ID)
			So(some[1].ID, ShouldEqual, second.ID)
		})

		Convey("deletion is blocked while performances reference the athlete", func() {
			_, err := s.CreatePerformance(ctx, model.Performance{
				AthleteID: created.ID, Discipline: model.DisciplineSpeed, Value: 8000, Date: model.NewDate(2025, time.May, 1),
			})
			So(err, ShouldBeNil)

			err = s.DeleteAthlete(ctx, created.ID)
			So(errors.Is(err, repository.ErrHasDependents), ShouldBeTrue)

			err = s.DeleteAthlete(ctx, created.ID+100)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("athletes without performances can be deleted", func() {
			So(s.DeleteAthlete(ctx, created.ID), ShouldBeNil)
			_, err := s.AthleteByEmail(ctx, anna.Email)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Performances", func() {
		s := newStore()
		a, err := s.CreateAthlete(ctx, anna)
		So(err, ShouldBeNil)

		p := model.Performance{
			AthleteID:  a.ID,
			Discipline: model.DisciplineSpeed,
			Value:      8999,
			Date:       model.NewDate(2025, time.June, 14),
			Medal:      model.MedalSilver,
		}
		created, err := s.CreatePerformance(ctx, p)
		So(err, ShouldBeNil)
		So(created.ID, ShouldBeGreaterThan, 0)

		Convey("the natural key is unique", func() {
			_, err := s.CreatePerformance(ctx, p)
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)

			got, err := s.PerformanceByKey(ctx, p.Key())
			So(err, ShouldBeNil)
			So(got, ShouldResemble, created)
		})

		Convey("updates overwrite value and medal in place", func() {
			upd := created
			upd.Value = 9000
			upd.Medal = model.MedalGold
			got, err := s.UpdatePerformance(ctx, upd)
			So(err, ShouldBeNil)
			So(got.Value, ShouldEqual, model.Score(9000))
			So(got.Medal, ShouldEqual, model.MedalGold)

			counts, err := s.Counts(ctx)
			So(err, ShouldBeNil)
			So(counts.Performances, ShouldEqual, 1)
		})

		Convey("unknown athletes are rejected", func() {
			orphan := p
			orphan.AthleteID = a.ID + 100
			_, err := s.CreatePerformance(ctx, orphan)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("lists filter and order newest first", func() {
			older := p
			older.Date = model.NewDate(2024, time.March, 1)
			older.Medal = model.MedalNone
			_, err := s.CreatePerformance(ctx, older)
			So(err, ShouldBeNil)

			all, err := s.ListPerformances(ctx, repository.PerformanceFilter{AthleteID: a.ID})
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 2)
			So(all[0].Date, ShouldResemble, p.Date)
			So(all[1].Medal, ShouldEqual, model.MedalNone)

			year, err := s.ListPerformances(ctx, repository.PerformanceFilter{Year: 2024})
			So(err, ShouldBeNil)
			So(year, ShouldHaveLength, 1)

			none, err := s.ListPerformances(ctx, repository.PerformanceFilter{Discipline: model.DisciplineStrength})
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)
		})
	})

	Convey("Criteria", func() {
		s := newStore()
		c := model.MedalCriteria{Discipline: model.DisciplineSpeed, MinAge: 6, MaxAge: 18, Bronze: 3000, Silver: 5000, Gold: 7050}
		So(s.UpsertCriteria(ctx, c), ShouldBeNil)
		c.MaxAge = 19
		So(s.UpsertCriteria(ctx, c), ShouldBeNil)

		got, err := s.Criteria(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, []model.MedalCriteria{c})
		So(s.Ping(ctx), ShouldBeNil)
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a MemoryStore", t, func() {
		contract(func() repository.Store { return repository.NewMemoryStore() })
	})

	Convey("Given an instrumented MemoryStore", t, func() {
		contract(func() repository.Store { return repository.Instrument(repository.NewMemoryStore()) })
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := repository.NewMemoryStore().CreateAthlete(ctx, anna)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MEDALIST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MEDALIST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := repository.NewPostgresStore(ctx, dsn, repository.WithMigrate(true), repository.WithMaxConns(4))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	Convey("Given a PostgresStore", t, func() {
		contract(func() repository.Store {
			if err := s.Reset(ctx); err != nil {
				t.Fatalf("reset: %v", err)
			}
			return s
		})
	})
}
