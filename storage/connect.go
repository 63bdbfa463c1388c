package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"
)

// Conn is an opened backing store, suitable for Manager.Start.
type Conn struct {
	Dialect string
	Handle  any
	close   func(context.Context) error
}

func (c *Conn) Close(ctx context.Context) error {
	if c == nil || c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// Connect opens a connection for dialect. database names the MongoDB
// database and is ignored by the SQL dialects.
func Connect(ctx context.Context, dialect, dsn, database string) (*Conn, error) {
	switch strings.ToLower(dialect) {
	case DialectSQLite, "":
		if dsn == "" {
			dsn = "file:novelbit.db"
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, Unavailable(err)
		}
		// sqlite serializes writers; a single connection avoids lock churn
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, Unavailable(err)
		}
		return &Conn{Dialect: DialectSQLite, Handle: db, close: func(context.Context) error { return db.Close() }}, nil

	case DialectPostgres, "postgresql", "pgx":
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, Unavailable(err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, Unavailable(err)
		}
		return &Conn{Dialect: DialectPostgres, Handle: db, close: func(context.Context) error { return db.Close() }}, nil

	case DialectMongo, "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
		if err != nil {
			return nil, Unavailable(err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, Unavailable(err)
		}
		if database == "" {
			database = "novelbit"
		}
		return &Conn{Dialect: DialectMongo, Handle: client.Database(database), close: client.Disconnect}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDriver, dialect)
}
