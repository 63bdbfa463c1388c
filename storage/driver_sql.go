package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type SQLDriver struct {
	a       *SQLAdapter
	dialect string
	repos   *sqlRepos
}

func newSQLDriver(dialect string) driverFactory {
	return func(adapter Adapter) (Driver, error) {
		a, ok := adapter.(*SQLAdapter)
		if !ok {
			return nil, fmt.Errorf("sql driver expects *SQLAdapter, got %T", adapter)
		}
		return &SQLDriver{a: a, dialect: dialect}, nil
	}
}

func (d *SQLDriver) Dialect() string { return d.dialect }

func (d *SQLDriver) Migrate(ctx context.Context) error {
	if d.a == nil || d.a.DB == nil {
		return nil
	}

	var migrations map[int][]string
	switch d.dialect {
	case DialectSQLite:
		migrations = sqliteMigrations
	case DialectPostgres:
		migrations = postgresMigrations
	default:
		return fmt.Errorf("unsupported SQL dialect: %s", d.dialect)
	}

	currentVersion := d.getSchemaVersion(ctx)
	maxVersion := len(migrations)
	if currentVersion >= maxVersion {
		return nil
	}

	tx, err := d.a.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for v := currentVersion + 1; v <= maxVersion; v++ {
		for _, op := range migrations[v] {
			if _, err := tx.ExecContext(ctx, op); err != nil {
				return fmt.Errorf("migration %d failed: %w", v, err)
			}
		}

		updateSQL := "UPDATE novelbit_schema_version SET num = ?"
		if currentVersion == 0 {
			updateSQL = "INSERT INTO novelbit_schema_version (num) VALUES (?)"
		}
		if _, err := tx.ExecContext(ctx, rebind(d.dialect, updateSQL), v); err != nil {
			return err
		}
		currentVersion = v
	}

	return tx.Commit()
}

func (d *SQLDriver) getSchemaVersion(ctx context.Context) int {
	var version sql.NullInt64
	err := d.a.DB.QueryRowContext(ctx, "SELECT num FROM novelbit_schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || err != nil || !version.Valid {
		return 0
	}
	return int(version.Int64)
}

func (d *SQLDriver) db() *sql.DB { return d.a.DB }

// rebind rewrites ? placeholders to $n for postgres.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inList renders "(?, ?, ...)" for n values.
func inList(n int) string {
	if n <= 0 {
		return "(NULL)"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
