package storage

var sqliteMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS novelbit_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS novelbit_attribute (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			bit_max REAL NOT NULL,
			bit_min REAL NOT NULL,
			created_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_novelbit_attribute_bits ON novelbit_attribute (bit_max, bit_min)`,
		`CREATE TABLE IF NOT EXISTS novelbit_record (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			attribute_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			bit_max REAL NOT NULL,
			bit_min REAL NOT NULL,
			metadata TEXT NOT NULL DEFAULT '',
			created_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_novelbit_record_attribute ON novelbit_record (attribute_id, created_ms)`,
	},
}

var postgresMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS novelbit_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS novelbit_attribute (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			bit_max DOUBLE PRECISION NOT NULL,
			bit_min DOUBLE PRECISION NOT NULL,
			created_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_novelbit_attribute_bits ON novelbit_attribute (bit_max, bit_min)`,
		`CREATE TABLE IF NOT EXISTS novelbit_record (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			attribute_id BIGINT NOT NULL REFERENCES novelbit_attribute (id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			bit_max DOUBLE PRECISION NOT NULL,
			bit_min DOUBLE PRECISION NOT NULL,
			metadata TEXT NOT NULL DEFAULT '',
			created_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_novelbit_record_attribute ON novelbit_record (attribute_id, created_ms)`,
	},
}
