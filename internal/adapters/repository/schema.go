package repository

// schema is applied by Migrate. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS athletes (
	id         BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	birthdate  DATE NOT NULL,
	gender     TEXT NOT NULL CHECK (gender IN ('MALE', 'FEMALE', 'OTHER')),
	email      TEXT NOT NULL,
	CONSTRAINT athletes_email_key UNIQUE (email)
);

CREATE INDEX IF NOT EXISTS athletes_identity_idx ON athletes (first_name, last_name, birthdate);

CREATE TABLE IF NOT EXISTS performances (
	id         BIGSERIAL PRIMARY KEY,
	athlete_id BIGINT NOT NULL REFERENCES athletes (id) ON DELETE RESTRICT,
	discipline TEXT NOT NULL,
	value      NUMERIC(5, 2) NOT NULL CHECK (value >= 0 AND value <= 100),
	date       DATE NOT NULL,
	medal      TEXT CHECK (medal IN ('GOLD', 'SILVER', 'BRONZE')),
	CONSTRAINT performances_natural_key UNIQUE (athlete_id, discipline, date)
);

CREATE TABLE IF NOT EXISTS medal_criteria (
	discipline   TEXT PRIMARY KEY,
	min_age      INTEGER NOT NULL,
	max_age      INTEGER NOT NULL,
	bronze_value NUMERIC(5, 2) NOT NULL,
	silver_value NUMERIC(5, 2) NOT NULL,
	gold_value   NUMERIC(5, 2) NOT NULL
);
`
