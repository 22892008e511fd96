package store

// schemaStatements defines the star schema. The uniqueness constraints on
// dim_datetime.local_datetime, dim_location.borough, the (datetime_id,
// location_id) pair on fact_weather, and fact_collisions.collision_id are the
// source of truth for get-or-create and duplicate detection; application-level
// checks are an optimization in front of them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS dim_datetime (
		datetime_id     BIGSERIAL PRIMARY KEY,
		local_datetime  TIMESTAMP NOT NULL UNIQUE,
		utc_datetime    TIMESTAMPTZ NOT NULL,
		date            DATE NOT NULL,
		hour            SMALLINT NOT NULL,
		day_of_week     TEXT NOT NULL,
		day_of_month    SMALLINT NOT NULL,
		month           SMALLINT NOT NULL,
		year            SMALLINT NOT NULL,
		quarter         SMALLINT NOT NULL,
		is_weekend      BOOLEAN NOT NULL,
		is_rush_hour    BOOLEAN NOT NULL,
		is_night        BOOLEAN NOT NULL,
		season          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS dim_location (
		location_id BIGSERIAL PRIMARY KEY,
		borough     TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS fact_weather (
		weather_id       BIGSERIAL PRIMARY KEY,
		datetime_id      BIGINT NOT NULL REFERENCES dim_datetime (datetime_id),
		location_id      BIGINT NOT NULL REFERENCES dim_location (location_id),
		temperature_2m   DOUBLE PRECISION NOT NULL,
		precipitation    DOUBLE PRECISION NOT NULL,
		visibility       DOUBLE PRECISION NOT NULL,
		rain             DOUBLE PRECISION NOT NULL,
		showers          DOUBLE PRECISION NOT NULL,
		snowfall         DOUBLE PRECISION NOT NULL,
		wind_speed_10m   DOUBLE PRECISION NOT NULL,
		weather_category TEXT NOT NULL,
		weather_severity TEXT NOT NULL,
		is_adverse       BOOLEAN NOT NULL,
		UNIQUE (datetime_id, location_id)
	)`,

	`CREATE TABLE IF NOT EXISTS fact_collisions (
		collision_fact_id     BIGSERIAL PRIMARY KEY,
		collision_id          TEXT NOT NULL UNIQUE,
		datetime_id           BIGINT NOT NULL REFERENCES dim_datetime (datetime_id),
		location_id           BIGINT NOT NULL REFERENCES dim_location (location_id),
		persons_injured       INTEGER NOT NULL,
		persons_killed        INTEGER NOT NULL,
		pedestrians_injured   INTEGER NOT NULL,
		pedestrians_killed    INTEGER NOT NULL,
		cyclists_injured      INTEGER NOT NULL,
		cyclists_killed       INTEGER NOT NULL,
		motorists_injured     INTEGER NOT NULL,
		motorists_killed      INTEGER NOT NULL,
		total_involved        INTEGER NOT NULL,
		has_injuries          BOOLEAN NOT NULL,
		has_fatalities        BOOLEAN NOT NULL,
		severity_level        TEXT NOT NULL,
		contributing_factor_1 TEXT,
		contributing_factor_2 TEXT,
		contributing_factor_3 TEXT,
		contributing_factor_4 TEXT,
		contributing_factor_5 TEXT,
		vehicle_type_1        TEXT,
		vehicle_type_2        TEXT,
		vehicle_type_3        TEXT,
		vehicle_type_4        TEXT,
		vehicle_type_5        TEXT,
		latitude              DOUBLE PRECISION,
		longitude             DOUBLE PRECISION,
		zip_code              TEXT,
		on_street_name        TEXT,
		off_street_name       TEXT,
		cross_street_name     TEXT,
		data_source           TEXT NOT NULL,
		load_run_id           TEXT NOT NULL
	)`,
}
