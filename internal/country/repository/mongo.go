package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/countrydata/country-service/internal/country"
)

// MongoRepo implements CountryRepository on a MongoDB collection. Records
// carry a "name_key" field (folded name) with a unique index so identity
// stays case-insensitive at the store level. BulkUpsert runs inside a
// session transaction, which requires the server to be a replica set.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (r *MongoRepo) All(ctx context.Context) ([]*country.Country, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find countries: %w", err)
	}
	defer cur.Close(ctx)
	out := []*country.Country{}
	for cur.Next(ctx) {
		var c country.Country
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (r *MongoRepo) GetByName(ctx context.Context, name string) (*country.Country, error) {
	var c country.Country
	err := r.col.FindOne(ctx, bson.M{"name_key": country.FoldName(name)}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"name_key": country.FoldName(name)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *MongoRepo) BulkUpsert(ctx context.Context, inserts, updates []*country.Country) error {
	sess, err := r.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if len(inserts) > 0 {
			docs := make([]interface{}, 0, len(inserts))
			for _, c := range inserts {
				docs = append(docs, c)
			}
			if _, err := r.col.InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("insert batch: %w", err)
			}
		}
		if len(updates) > 0 {
			models := make([]mongo.WriteModel, 0, len(updates))
			for _, c := range updates {
				models = append(models,
					mongo.NewReplaceOneModel().
						SetFilter(bson.M{"name_key": c.NameKey}).
						SetReplacement(c))
			}
			if _, err := r.col.BulkWrite(sc, models); err != nil {
				return nil, fmt.Errorf("update batch: %w", err)
			}
		}
		return nil, nil
	})
	return err
}
