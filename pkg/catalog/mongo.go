package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// MongoConfig locates the catalog collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoWriter stores one document per package, keyed by slug. Each write
// upserts every entry and removes packages that are no longer in the catalog.
type MongoWriter struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoWriter connects to MongoDB and verifies the connection.
func NewMongoWriter(ctx context.Context, cfg MongoConfig) (*MongoWriter, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "catalog: mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "schemahub"
	}
	if cfg.Collection == "" {
		cfg.Collection = "catalog"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	return &MongoWriter{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Write implements Writer.
func (w *MongoWriter) Write(ctx context.Context, c Catalog) error {
	models, keep := writeModels(c)
	if len(models) > 0 {
		if _, err := w.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write catalog entries")
		}
	}
	if _, err := w.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": keep}}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "prune catalog entries")
	}
	return nil
}

// Load reads the catalog back from the collection.
func (w *MongoWriter) Load(ctx context.Context) (Catalog, error) {
	cur, err := w.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query catalog")
	}
	var entries []*Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode catalog")
	}
	c := Catalog{}
	for _, e := range entries {
		c[e.Slug] = e
	}
	return c, nil
}

// Close disconnects the client.
func (w *MongoWriter) Close(ctx context.Context) error {
	return w.client.Disconnect(ctx)
}

func writeModels(c Catalog) ([]mongo.WriteModel, []string) {
	slugs := append([]string{}, c.Slugs()...)
	models := make([]mongo.WriteModel, 0, len(slugs))
	for _, slug := range slugs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": slug}).
			SetReplacement(c[slug]).
			SetUpsert(true))
	}
	return models, slugs
}

var _ Writer = (*MongoWriter)(nil)
