package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const attributeColumns = "id, uuid, text, bit_max, bit_min, created_ms"
const recordColumns = "id, uuid, attribute_id, text, bit_max, bit_min, metadata, created_ms"

type sqlRepos struct {
	attribute *sqlAttributeRepo
	record    *sqlRecordRepo
}

func (d *SQLDriver) Attribute() AttributeRepo {
	if d.repos == nil {
		d.initRepos()
	}
	return d.repos.attribute
}

func (d *SQLDriver) Record() RecordRepo {
	if d.repos == nil {
		d.initRepos()
	}
	return d.repos.record
}

func (d *SQLDriver) initRepos() {
	d.repos = &sqlRepos{
		attribute: &sqlAttributeRepo{db: d.db(), dialect: d.dialect},
		record:    &sqlRecordRepo{db: d.db(), dialect: d.dialect},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttribute(s rowScanner) (AttributeRow, error) {
	var a AttributeRow
	err := s.Scan(&a.ID, &a.UUID, &a.Text, &a.BitMax, &a.BitMin, &a.CreatedMs)
	return a, err
}

func scanRecord(s rowScanner) (RecordRow, error) {
	var r RecordRow
	var meta sql.NullString
	err := s.Scan(&r.ID, &r.UUID, &r.AttributeID, &r.Text, &r.BitMax, &r.BitMin, &meta, &r.CreatedMs)
	r.Metadata = meta.String
	return r, err
}

func idArgs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// SQL repos implementation
type sqlAttributeRepo struct {
	db      *sql.DB
	dialect string
}

func (r *sqlAttributeRepo) find(ctx context.Context, text string, b Bits) (AttributeRow, error) {
	query := "SELECT " + attributeColumns + " FROM novelbit_attribute" +
		" WHERE text = ? AND ABS(bit_max - ?) < ? AND ABS(bit_min - ?) < ? ORDER BY id LIMIT 1"
	return scanAttribute(r.db.QueryRowContext(ctx, rebind(r.dialect, query),
		text, b.Max, b.Eps, b.Min, b.Eps))
}

func (r *sqlAttributeRepo) Find(ctx context.Context, text string, b Bits) (AttributeRow, bool, error) {
	row, err := r.find(ctx, text, b)
	if errors.Is(err, sql.ErrNoRows) {
		return AttributeRow{}, false, nil
	}
	if err != nil {
		return AttributeRow{}, false, err
	}
	return row, true, nil
}

func (r *sqlAttributeRepo) FindOrCreate(ctx context.Context, text string, b Bits) (AttributeRow, bool, error) {
	row, err := r.find(ctx, text, b)
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return AttributeRow{}, false, err
	}

	row = AttributeRow{
		UUID:      uuid.New().String(),
		Text:      text,
		BitMax:    b.Max,
		BitMin:    b.Min,
		CreatedMs: time.Now().UnixMilli(),
	}
	query := "INSERT INTO novelbit_attribute (uuid, text, bit_max, bit_min, created_ms) VALUES (?, ?, ?, ?, ?) RETURNING id"
	err = r.db.QueryRowContext(ctx, rebind(r.dialect, query),
		row.UUID, row.Text, row.BitMax, row.BitMin, row.CreatedMs,
	).Scan(&row.ID)
	if err != nil {
		// Fallback to existing (handles concurrent creation)
		if existing, ferr := r.find(ctx, text, b); ferr == nil {
			return existing, false, nil
		}
		return AttributeRow{}, false, err
	}
	return row, true, nil
}

func (r *sqlAttributeRepo) query(ctx context.Context, query string, args ...any) ([]AttributeRow, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttributeRow
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *sqlAttributeRepo) Match(ctx context.Context, b Bits) ([]AttributeRow, error) {
	return r.query(ctx, "SELECT "+attributeColumns+" FROM novelbit_attribute"+
		" WHERE ABS(bit_max - ?) < ? AND ABS(bit_min - ?) < ? ORDER BY id",
		b.Max, b.Eps, b.Min, b.Eps)
}

func (r *sqlAttributeRepo) MatchText(ctx context.Context, text string) ([]AttributeRow, error) {
	return r.query(ctx, "SELECT "+attributeColumns+" FROM novelbit_attribute WHERE text = ? ORDER BY id", text)
}

func (r *sqlAttributeRepo) List(ctx context.Context) ([]AttributeRow, error) {
	return r.query(ctx, "SELECT "+attributeColumns+" FROM novelbit_attribute ORDER BY id")
}

func (r *sqlAttributeRepo) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := "DELETE FROM novelbit_attribute WHERE id IN " + inList(len(ids))
	res, err := r.db.ExecContext(ctx, rebind(r.dialect, query), idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *sqlAttributeRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM novelbit_attribute").Scan(&n)
	return n, err
}

func (r *sqlAttributeRepo) CountEmpty(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM novelbit_attribute a
		WHERE NOT EXISTS (SELECT 1 FROM novelbit_record r WHERE r.attribute_id = a.id)`).Scan(&n)
	return n, err
}

type sqlRecordRepo struct {
	db      *sql.DB
	dialect string
}

func (r *sqlRecordRepo) Create(ctx context.Context, rec RecordRow) (RecordRow, error) {
	if rec.UUID == "" {
		rec.UUID = uuid.New().String()
	}
	if rec.CreatedMs == 0 {
		rec.CreatedMs = time.Now().UnixMilli()
	}
	query := "INSERT INTO novelbit_record (uuid, attribute_id, text, bit_max, bit_min, metadata, created_ms)" +
		" VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id"
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, query),
		rec.UUID, rec.AttributeID, rec.Text, rec.BitMax, rec.BitMin, rec.Metadata, rec.CreatedMs,
	).Scan(&rec.ID)
	return rec, err
}

func (r *sqlRecordRepo) Exists(ctx context.Context, attrIDs []int64, text string, b Bits) (bool, error) {
	if len(attrIDs) == 0 {
		return false, nil
	}
	query := "SELECT COUNT(1) FROM novelbit_record WHERE attribute_id IN " + inList(len(attrIDs)) +
		" AND text = ? AND ABS(bit_max - ?) < ? AND ABS(bit_min - ?) < ?"
	args := append(idArgs(attrIDs), text, b.Max, b.Eps, b.Min, b.Eps)
	var n int
	if err := r.db.QueryRowContext(ctx, rebind(r.dialect, query), args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sqlRecordRepo) HasText(ctx context.Context, attrIDs []int64, text string) (bool, error) {
	if len(attrIDs) == 0 {
		return false, nil
	}
	query := "SELECT COUNT(1) FROM novelbit_record WHERE attribute_id IN " + inList(len(attrIDs)) + " AND text = ?"
	args := append(idArgs(attrIDs), text)
	var n int
	if err := r.db.QueryRowContext(ctx, rebind(r.dialect, query), args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sqlRecordRepo) List(ctx context.Context, attrIDs []int64, limit int) ([]RecordRow, error) {
	if len(attrIDs) == 0 {
		return nil, nil
	}
	query := "SELECT " + recordColumns + " FROM novelbit_record WHERE attribute_id IN " + inList(len(attrIDs)) +
		" ORDER BY created_ms DESC, id DESC"
	args := idArgs(attrIDs)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqlRecordRepo) exec(ctx context.Context, query string, args ...any) (int, error) {
	res, err := r.db.ExecContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *sqlRecordRepo) DeleteMatching(ctx context.Context, attrIDs []int64, b Bits) (int, error) {
	if len(attrIDs) == 0 {
		return 0, nil
	}
	query := "DELETE FROM novelbit_record WHERE attribute_id IN " + inList(len(attrIDs)) +
		" AND ABS(bit_max - ?) < ? AND ABS(bit_min - ?) < ?"
	return r.exec(ctx, query, append(idArgs(attrIDs), b.Max, b.Eps, b.Min, b.Eps)...)
}

func (r *sqlRecordRepo) DeleteByAttribute(ctx context.Context, attrIDs []int64) (int, error) {
	if len(attrIDs) == 0 {
		return 0, nil
	}
	return r.exec(ctx, "DELETE FROM novelbit_record WHERE attribute_id IN "+inList(len(attrIDs)), idArgs(attrIDs)...)
}

func (r *sqlRecordRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM novelbit_record").Scan(&n)
	return n, err
}
