package storage

func init() {
	RegisterAdapter(isSQLDB, newSQLAdapter)
	RegisterAdapter(isMongoDB, newMongoAdapter)

	// drivers
	RegisterDriver(DialectSQLite, newSQLDriver(DialectSQLite))
	RegisterDriver(DialectPostgres, newSQLDriver(DialectPostgres))
	RegisterDriver(DialectMongo, newMongoDriver)
}
