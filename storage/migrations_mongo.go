package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collSchemaVersion = "novelbit_schema_version"
	collCounters      = "novelbit_counters"
	collAttribute     = "novelbit_attribute"
	collRecord        = "novelbit_record"
)

type mongoMigrationOp struct {
	Collection string
	Index      mongo.IndexModel
}

var mongoMigrations = map[int][]mongoMigrationOp{
	1: {
		{collSchemaVersion, mongo.IndexModel{
			Keys:    bson.D{{Key: "num", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collAttribute, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collAttribute, mongo.IndexModel{
			Keys:    bson.D{{Key: "uuid", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collAttribute, mongo.IndexModel{
			Keys:    bson.D{{Key: "bit_max", Value: 1}, {Key: "bit_min", Value: 1}},
			Options: options.Index().SetName("idx_novelbit_attribute_bits"),
		}},
		{collRecord, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collRecord, mongo.IndexModel{
			Keys:    bson.D{{Key: "uuid", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collRecord, mongo.IndexModel{
			Keys:    bson.D{{Key: "attribute_id", Value: 1}, {Key: "created_ms", Value: -1}},
			Options: options.Index().SetName("idx_novelbit_record_attribute"),
		}},
	},
}

func (d *MongoDriver) migrateMongo(ctx context.Context) error {
	currentVersion := d.getSchemaVersion(ctx)
	maxVersion := len(mongoMigrations)

	if currentVersion >= maxVersion {
		return nil
	}

	for v := currentVersion + 1; v <= maxVersion; v++ {
		for _, op := range mongoMigrations[v] {
			coll := d.db().Collection(op.Collection)
			if _, err := coll.Indexes().CreateOne(ctx, op.Index); err != nil {
				if !mongo.IsDuplicateKeyError(err) {
					return err
				}
			}
		}

		svColl := d.db().Collection(collSchemaVersion)
		_, err := svColl.ReplaceOne(
			ctx,
			bson.M{"num": currentVersion},
			bson.M{"num": v},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return err
		}
		currentVersion = v
	}

	return nil
}

func (d *MongoDriver) getSchemaVersion(ctx context.Context) int {
	var doc struct {
		Num int `bson:"num"`
	}
	err := d.db().Collection(collSchemaVersion).FindOne(ctx, bson.M{}).Decode(&doc)
	if err != nil {
		return 0
	}
	return doc.Num
}
