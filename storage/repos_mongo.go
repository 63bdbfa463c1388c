package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepos struct {
	attribute *mongoAttributeRepo
	record    *mongoRecordRepo
}

func (d *MongoDriver) Attribute() AttributeRepo {
	if d.repos == nil {
		d.initRepos()
	}
	return d.repos.attribute
}

func (d *MongoDriver) Record() RecordRepo {
	if d.repos == nil {
		d.initRepos()
	}
	return d.repos.record
}

func (d *MongoDriver) initRepos() {
	d.repos = &mongoRepos{
		attribute: &mongoAttributeRepo{db: d.db()},
		record:    &mongoRecordRepo{db: d.db()},
	}
}

type mongoAttribute struct {
	ID        int64   `bson:"id"`
	UUID      string  `bson:"uuid"`
	Text      string  `bson:"text"`
	BitMax    float64 `bson:"bit_max"`
	BitMin    float64 `bson:"bit_min"`
	CreatedMs int64   `bson:"created_ms"`
}

func (m mongoAttribute) row() AttributeRow {
	return AttributeRow(m)
}

type mongoRecord struct {
	ID          int64   `bson:"id"`
	UUID        string  `bson:"uuid"`
	AttributeID int64   `bson:"attribute_id"`
	Text        string  `bson:"text"`
	BitMax      float64 `bson:"bit_max"`
	BitMin      float64 `bson:"bit_min"`
	Metadata    string  `bson:"metadata"`
	CreatedMs   int64   `bson:"created_ms"`
}

// bitsFilter matches both axes within b.Eps.
func bitsFilter(b Bits) bson.M {
	return bson.M{
		"bit_max": bson.M{"$gt": b.Max - b.Eps, "$lt": b.Max + b.Eps},
		"bit_min": bson.M{"$gt": b.Min - b.Eps, "$lt": b.Min + b.Eps},
	}
}

func idsFilter(ids []int64) bson.M {
	return bson.M{"attribute_id": bson.M{"$in": ids}}
}

// MongoDB repos

type mongoAttributeRepo struct {
	db *mongo.Database
}

func (r *mongoAttributeRepo) coll() *mongo.Collection { return r.db.Collection(collAttribute) }

func (r *mongoAttributeRepo) find(ctx context.Context, filter bson.M) ([]AttributeRow, error) {
	cur, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []AttributeRow
	for cur.Next(ctx) {
		var doc mongoAttribute
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.row())
	}
	return out, cur.Err()
}

func (r *mongoAttributeRepo) findOne(ctx context.Context, text string, b Bits) (AttributeRow, error) {
	filter := bitsFilter(b)
	filter["text"] = text
	var doc mongoAttribute
	err := r.coll().FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "id", Value: 1}})).Decode(&doc)
	return doc.row(), err
}

func (r *mongoAttributeRepo) Find(ctx context.Context, text string, b Bits) (AttributeRow, bool, error) {
	row, err := r.findOne(ctx, text, b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return AttributeRow{}, false, nil
	}
	if err != nil {
		return AttributeRow{}, false, err
	}
	return row, true, nil
}

func (r *mongoAttributeRepo) FindOrCreate(ctx context.Context, text string, b Bits) (AttributeRow, bool, error) {
	row, err := r.findOne(ctx, text, b)
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return AttributeRow{}, false, err
	}

	seq, err := nextSeq(ctx, r.db, collAttribute)
	if err != nil {
		return AttributeRow{}, false, err
	}
	doc := mongoAttribute{
		ID:        seq,
		UUID:      uuid.New().String(),
		Text:      text,
		BitMax:    b.Max,
		BitMin:    b.Min,
		CreatedMs: time.Now().UnixMilli(),
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return AttributeRow{}, false, err
	}
	return doc.row(), true, nil
}

func (r *mongoAttributeRepo) Match(ctx context.Context, b Bits) ([]AttributeRow, error) {
	return r.find(ctx, bitsFilter(b))
}

func (r *mongoAttributeRepo) MatchText(ctx context.Context, text string) ([]AttributeRow, error) {
	return r.find(ctx, bson.M{"text": text})
}

func (r *mongoAttributeRepo) List(ctx context.Context) ([]AttributeRow, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoAttributeRepo) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll().DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *mongoAttributeRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (r *mongoAttributeRepo) CountEmpty(ctx context.Context) (int, error) {
	used, err := r.db.Collection(collRecord).Distinct(ctx, "attribute_id", bson.M{})
	if err != nil {
		return 0, err
	}
	n, err := r.coll().CountDocuments(ctx, bson.M{"id": bson.M{"$nin": used}})
	return int(n), err
}

type mongoRecordRepo struct {
	db *mongo.Database
}

func (r *mongoRecordRepo) coll() *mongo.Collection { return r.db.Collection(collRecord) }

func (r *mongoRecordRepo) Create(ctx context.Context, rec RecordRow) (RecordRow, error) {
	seq, err := nextSeq(ctx, r.db, collRecord)
	if err != nil {
		return RecordRow{}, err
	}
	rec.ID = seq
	if rec.UUID == "" {
		rec.UUID = uuid.New().String()
	}
	if rec.CreatedMs == 0 {
		rec.CreatedMs = time.Now().UnixMilli()
	}
	if _, err := r.coll().InsertOne(ctx, mongoRecord(rec)); err != nil {
		return RecordRow{}, err
	}
	return rec, nil
}

func (r *mongoRecordRepo) count(ctx context.Context, filter bson.M) (int, error) {
	n, err := r.coll().CountDocuments(ctx, filter)
	return int(n), err
}

func (r *mongoRecordRepo) Exists(ctx context.Context, attrIDs []int64, text string, b Bits) (bool, error) {
	if len(attrIDs) == 0 {
		return false, nil
	}
	filter := bitsFilter(b)
	filter["attribute_id"] = bson.M{"$in": attrIDs}
	filter["text"] = text
	n, err := r.count(ctx, filter)
	return n > 0, err
}

func (r *mongoRecordRepo) HasText(ctx context.Context, attrIDs []int64, text string) (bool, error) {
	if len(attrIDs) == 0 {
		return false, nil
	}
	filter := idsFilter(attrIDs)
	filter["text"] = text
	n, err := r.count(ctx, filter)
	return n > 0, err
}

func (r *mongoRecordRepo) List(ctx context.Context, attrIDs []int64, limit int) ([]RecordRow, error) {
	if len(attrIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_ms", Value: -1}, {Key: "id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll().Find(ctx, idsFilter(attrIDs), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []RecordRow
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, RecordRow(doc))
	}
	return out, cur.Err()
}

func (r *mongoRecordRepo) deleteMany(ctx context.Context, filter bson.M) (int, error) {
	res, err := r.coll().DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *mongoRecordRepo) DeleteMatching(ctx context.Context, attrIDs []int64, b Bits) (int, error) {
	if len(attrIDs) == 0 {
		return 0, nil
	}
	filter := bitsFilter(b)
	filter["attribute_id"] = bson.M{"$in": attrIDs}
	return r.deleteMany(ctx, filter)
}

func (r *mongoRecordRepo) DeleteByAttribute(ctx context.Context, attrIDs []int64) (int, error) {
	if len(attrIDs) == 0 {
		return 0, nil
	}
	return r.deleteMany(ctx, idsFilter(attrIDs))
}

func (r *mongoRecordRepo) Count(ctx context.Context) (int, error) {
	return r.count(ctx, bson.M{})
}

func nextSeq(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(collCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
