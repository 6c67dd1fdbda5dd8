package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/medalist/internal/domain/model"
)

// PostgreSQL error codes the store translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := postgresOptions{maxConns: 10, minConns: 0, maxConnLifetime: time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = o.minConns
	cfg.MaxConnLifetime = o.maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s := &PostgresStore{pool: pool, db: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if o.migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", mapError(err))
	}
	return nil
}

// Reset removes all rows and restarts the id sequences.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `TRUNCATE performances, athletes, medal_criteria RESTART IDENTITY`); err != nil {
		return fmt.Errorf("reset: %w", mapError(err))
	}
	return nil
}

const athleteColumns = `id, first_name, last_name, birthdate, gender, email`

func scanAthlete(row pgx.Row) (model.Athlete, error) {
	var (
		a      model.Athlete
		birth  pgtype.Date
		gender string
	)
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &birth, &gender, &a.Email); err != nil {
		return model.Athlete{}, err
	}
	a.Birthdate = model.DateOf(birth.Time)
	a.Gender = model.Gender(gender)
	return a, nil
}

func collectAthletes(rows pgx.Rows) ([]model.Athlete, error) {
	defer rows.Close()
	var out []model.Athlete
	for rows.Next() {
		a, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AthleteByID implements Store.
func (s *PostgresStore) AthleteByID(ctx context.Context, id int64) (model.Athlete, error) {
	a, err := scanAthlete(s.db.QueryRow(ctx,
		`SELECT `+athleteColumns+` FROM athletes WHERE id = $1`, id))
	if err != nil {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", id, mapError(err))
	}
	return a, nil
}

// AthleteByEmail implements Store.
func (s *PostgresStore) AthleteByEmail(ctx context.Context, email string) (model.Athlete, error) {
	a, err := scanAthlete(s.db.QueryRow(ctx,
		`SELECT `+athleteColumns+` FROM athletes WHERE email = $1`, email))
	if err != nil {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", email, mapError(err))
	}
	return a, nil
}

// AthleteByIdentity implements Store.
func (s *PostgresStore) AthleteByIdentity(ctx context.Context, id model.Identity) (model.Athlete, error) {
	a, err := scanAthlete(s.db.QueryRow(ctx,
		`SELECT `+athleteColumns+` FROM athletes
		 WHERE first_name = $1 AND last_name = $2 AND birthdate = $3
		 ORDER BY id LIMIT 1`,
		id.FirstName, id.LastName, pgDate(id.Birthdate)))
	if err != nil {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", id, mapError(err))
	}
	return a, nil
}

// AthletesByIDs implements Store.
func (s *PostgresStore) AthletesByIDs(ctx context.Context, ids []int64) ([]model.Athlete, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+athleteColumns+` FROM athletes WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("athletes by ids: %w", mapError(err))
	}
	out, err := collectAthletes(rows)
	if err != nil {
		return nil, fmt.Errorf("athletes by ids: %w", mapError(err))
	}
	return out, nil
}

// ListAthletes implements Store.
func (s *PostgresStore) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	rows, err := s.db.Query(ctx, `SELECT `+athleteColumns+` FROM athletes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", mapError(err))
	}
	out, err := collectAthletes(rows)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", mapError(err))
	}
	return out, nil
}

// CreateAthlete implements Store.
func (s *PostgresStore) CreateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	err := s.db.QueryRow(ctx,
		`INSERT INTO athletes (first_name, last_name, birthdate, gender, email)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.FirstName, a.LastName, pgDate(a.Birthdate), string(a.Gender), a.Email,
	).Scan(&a.ID)
	if err != nil {
		return model.Athlete{}, fmt.Errorf("create athlete %s: %w", a.Email, mapError(err))
	}
	return a, nil
}

// UpdateAthlete implements Store.
func (s *PostgresStore) UpdateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	out, err := scanAthlete(s.db.QueryRow(ctx,
		`UPDATE athletes SET first_name = $2, last_name = $3, birthdate = $4, gender = $5
		 WHERE id = $1 RETURNING `+athleteColumns,
		a.ID, a.FirstName, a.LastName, pgDate(a.Birthdate), string(a.Gender)))
	if err != nil {
		return model.Athlete{}, fmt.Errorf("update athlete %d: %w", a.ID, mapError(err))
	}
	return out, nil
}

// DeleteAthlete implements Store. The foreign key on performances blocks
// deletion while results reference the athlete.
func (s *PostgresStore) DeleteAthlete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM athletes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete athlete %d: %w", id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete athlete %d: %w", id, ErrNotFound)
	}
	return nil
}

const performanceColumns = `id, athlete_id, discipline, value, date, medal`

func scanPerformance(row pgx.Row) (model.Performance, error) {
	var (
		p          model.Performance
		discipline string
		value      pgtype.Numeric
		date       pgtype.Date
		medal      pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.AthleteID, &discipline, &value, &date, &medal); err != nil {
		return model.Performance{}, err
	}
	f, err := value.Float64Value()
	if err != nil {
		return model.Performance{}, err
	}
	p.Discipline = model.Discipline(discipline)
	p.Value = model.ScoreFromFloat(f.Float64)
	p.Date = model.DateOf(date.Time)
	p.Medal = model.Medal(medal.String)
	return p, nil
}

// PerformanceByKey implements Store.
func (s *PostgresStore) PerformanceByKey(ctx context.Context, key model.PerformanceKey) (model.Performance, error) {
	p, err := scanPerformance(s.db.QueryRow(ctx,
		`SELECT `+performanceColumns+` FROM performances
		 WHERE athlete_id = $1 AND discipline = $2 AND date = $3`,
		key.AthleteID, string(key.Discipline), pgDate(key.Date)))
	if err != nil {
		return model.Performance{}, fmt.Errorf("performance: %w", mapError(err))
	}
	return p, nil
}

// CreatePerformance implements Store. A missing athlete surfaces as a
// foreign key violation and is reported as ErrNotFound.
func (s *PostgresStore) CreatePerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	value, err := pgNumeric(p.Value)
	if err != nil {
		return model.Performance{}, err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO performances (athlete_id, discipline, value, date, medal)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.AthleteID, string(p.Discipline), value, pgDate(p.Date), pgMedal(p.Medal),
	).Scan(&p.ID)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrHasDependents) {
			err = ErrNotFound
		}
		return model.Performance{}, fmt.Errorf("create performance: %w", err)
	}
	return p, nil
}

// UpdatePerformance implements Store.
func (s *PostgresStore) UpdatePerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	value, err := pgNumeric(p.Value)
	if err != nil {
		return model.Performance{}, err
	}
	out, err := scanPerformance(s.db.QueryRow(ctx,
		`UPDATE performances SET value = $2, medal = $3
		 WHERE id = $1 RETURNING `+performanceColumns,
		p.ID, value, pgMedal(p.Medal)))
	if err != nil {
		return model.Performance{}, fmt.Errorf("update performance %d: %w", p.ID, mapError(err))
	}
	return out, nil
}

// ListPerformances implements Store.
func (s *PostgresStore) ListPerformances(ctx context.Context, f PerformanceFilter) ([]model.Performance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+performanceColumns+` FROM performances
		 WHERE ($1::bigint IS NULL OR athlete_id = $1)
		   AND ($2::text IS NULL OR discipline = $2)
		   AND ($3::int IS NULL OR EXTRACT(YEAR FROM date) = $3)
		 ORDER BY date DESC, id DESC`,
		pgtype.Int8{Int64: f.AthleteID, Valid: f.AthleteID != 0},
		pgtype.Text{String: string(f.Discipline), Valid: f.Discipline != ""},
		pgtype.Int4{Int32: int32(f.Year), Valid: f.Year != 0}, //nolint:gosec // calendar year
	)
	if err != nil {
		return nil, fmt.Errorf("list performances: %w", mapError(err))
	}
	defer rows.Close()
	var out []model.Performance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("list performances: %w", mapError(err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list performances: %w", mapError(err))
	}
	return out, nil
}

// Criteria implements Store.
func (s *PostgresStore) Criteria(ctx context.Context) ([]model.MedalCriteria, error) {
	rows, err := s.db.Query(ctx,
		`SELECT discipline, min_age, max_age, bronze_value, silver_value, gold_value
		 FROM medal_criteria ORDER BY discipline`)
	if err != nil {
		return nil, fmt.Errorf("criteria: %w", mapError(err))
	}
	defer rows.Close()
	var out []model.MedalCriteria
	for rows.Next() {
		var (
			c                    model.MedalCriteria
			discipline           string
			bronze, silver, gold pgtype.Numeric
		)
		if err := rows.Scan(&discipline, &c.MinAge, &c.MaxAge, &bronze, &silver, &gold); err != nil {
			return nil, fmt.Errorf("criteria: %w", mapError(err))
		}
		c.Discipline = model.Discipline(discipline)
		for _, pair := range []struct {
			dst *model.Score
			src pgtype.Numeric
		}{{&c.Bronze, bronze}, {&c.Silver, silver}, {&c.Gold, gold}} {
			f, err := pair.src.Float64Value()
			if err != nil {
				return nil, fmt.Errorf("criteria %s: %w", discipline, err)
			}
			*pair.dst = model.ScoreFromFloat(f.Float64)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("criteria: %w", mapError(err))
	}
	return out, nil
}

// UpsertCriteria implements Store.
func (s *PostgresStore) UpsertCriteria(ctx context.Context, c model.MedalCriteria) error {
	var vals [3]pgtype.Numeric
	for i, v := range []model.Score{c.Bronze, c.Silver, c.Gold} {
		n, err := pgNumeric(v)
		if err != nil {
			return err
		}
		vals[i] = n
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO medal_criteria (discipline, min_age, max_age, bronze_value, silver_value, gold_value)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (discipline) DO UPDATE SET
		   min_age = EXCLUDED.min_age, max_age = EXCLUDED.max_age,
		   bronze_value = EXCLUDED.bronze_value, silver_value = EXCLUDED.silver_value,
		   gold_value = EXCLUDED.gold_value`,
		string(c.Discipline), c.MinAge, c.MaxAge, vals[0], vals[1], vals[2])
	if err != nil {
		return fmt.Errorf("upsert criteria %s: %w", c.Discipline, mapError(err))
	}
	return nil
}

// Counts implements Store.
func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM athletes),
		        (SELECT count(*) FROM performances),
		        (SELECT count(*) FROM medal_criteria)`,
	).Scan(&c.Athletes, &c.Performances, &c.Criteria)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", mapError(err))
	}
	return c, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() { s.pool.Close() }

func pgDate(d model.Date) pgtype.Date {
	return pgtype.Date{Time: d.Time(), Valid: !d.IsZero()}
}

func pgNumeric(s model.Score) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(s.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("numeric %s: %w", s, err)
	}
	return n, nil
}

func pgMedal(m model.Medal) pgtype.Text {
	return pgtype.Text{String: string(m), Valid: m != model.MedalNone}
}

// mapError translates driver errors into the package sentinels.
// Deadline errors are returned unchanged so callers can classify them.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrHasDependents, pgErr.ConstraintName)
		}
		return err
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
