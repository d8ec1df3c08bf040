package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"content_spider/internal/config"
	"content_spider/internal/models"
)

// Mongo implements Store on top of MongoDB, one collection for
// documents and one for the URL queue.
type Mongo struct {
	client    *mongo.Client
	documents *mongo.Collection
	urls      *mongo.Collection
}

var _ Store = (*Mongo)(nil)

func NewMongo(cfg config.DBConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	m := &Mongo{
		client:    client,
		documents: database.Collection(cfg.Collections.Documents),
		urls:      database.Collection(cfg.Collections.URLs),
	}

	if err := m.createIndexes(); err != nil {
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}

	return m, nil
}

func (m *Mongo) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "type", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	}
	if _, err := m.documents.Indexes().CreateMany(ctx, docIndexes); err != nil {
		return err
	}

	urlIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_processed", Value: 1}, {Key: "type", Value: 1}},
		},
	}
	if _, err := m.urls.Indexes().CreateMany(ctx, urlIndexes); err != nil {
		return err
	}

	return nil
}

func (m *Mongo) UpsertDocument(ctx context.Context, doc *models.Document) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"url": doc.URL}

	set := bson.M{
		"title":        doc.Title,
		"content":      doc.Content,
		"timestamp":    doc.Timestamp,
		"type":         doc.Type,
		"last_updated": doc.LastUpdated,
		"is_active":    doc.IsActive,
	}
	if doc.RawHTML != "" {
		set["raw_html"] = doc.RawHTML
	}
	if doc.Metadata != nil {
		set["metadata"] = doc.Metadata
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"url": doc.URL},
	}

	_, err := m.documents.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *Mongo) GetDocument(ctx context.Context, url string) (*models.Document, error) {
	var doc models.Document
	err := m.documents.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func docFilter(filter DocumentFilter) bson.M {
	f := bson.M{}
	if filter.ActiveOnly {
		f["is_active"] = true
	}
	if filter.Type != "" {
		f["type"] = filter.Type
	}
	return f
}

func containsRegex(field, term string) bson.M {
	return bson.M{field: bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}}
}

func titleOrContent(term string) bson.M {
	return bson.M{"$or": bson.A{containsRegex("title", term), containsRegex("content", term)}}
}

func (m *Mongo) FindDocuments(ctx context.Context, filter DocumentFilter, match *TermQuery, limit int64) ([]models.Document, error) {
	f := docFilter(filter)

	if match != nil {
		switch {
		case len(match.AllOf) > 0:
			and := bson.A{}
			for _, term := range match.AllOf {
				and = append(and, titleOrContent(term))
			}
			f["$and"] = and
		case len(match.AnyOf) > 0:
			or := bson.A{}
			for _, term := range match.AnyOf {
				or = append(or, titleOrContent(term))
			}
			f["$or"] = or
		case len(match.TitleAnyOf) > 0:
			or := bson.A{}
			for _, term := range match.TitleAnyOf {
				or = append(or, containsRegex("title", term))
			}
			f["$or"] = or
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.documents.Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) TextSearch(ctx context.Context, filter DocumentFilter, terms string, limit int64) ([]models.Document, error) {
	f := docFilter(filter)
	f["$text"] = bson.M{"$search": terms}

	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.documents.Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) CountDocuments(ctx context.Context, filter DocumentFilter) (int64, error) {
	return m.documents.CountDocuments(ctx, docFilter(filter))
}

func (m *Mongo) DeleteDocumentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.documents.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) SaveQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	var existing models.QueueEntry
	err := m.urls.FindOne(ctx, bson.M{"url": entry.URL}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		_, err := m.urls.InsertOne(ctx, entry)
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent discovery of the same URL;
			// the unique index kept the invariant.
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	if !existing.IsProcessed && existing.Type != entry.Type {
		_, err := m.urls.UpdateOne(ctx,
			bson.M{"url": entry.URL, "is_processed": false},
			bson.M{"$set": bson.M{"type": entry.Type}})
		return err
	}
	return nil
}

func (m *Mongo) UnprocessedEntries(ctx context.Context, typ string) ([]models.QueueEntry, error) {
	f := bson.M{"is_processed": false}
	if typ != "" {
		f["type"] = typ
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := m.urls.Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.QueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *Mongo) MarkProcessed(ctx context.Context, url string) error {
	now := time.Now()
	_, err := m.urls.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$set": bson.M{"is_processed": true, "last_processed": now}})
	return err
}

func (m *Mongo) QueueStats(ctx context.Context) (*models.QueueStats, error) {
	total, err := m.urls.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	processed, err := m.urls.CountDocuments(ctx, bson.M{"is_processed": true})
	if err != nil {
		return nil, err
	}

	stats := &models.QueueStats{
		Total:       total,
		Processed:   processed,
		Unprocessed: total - processed,
		ByType:      make(map[string]int64),
	}
	for _, typ := range []string{models.TypeNews, models.TypePrivate, models.TypeGeneral} {
		n, err := m.urls.CountDocuments(ctx, bson.M{"type": typ})
		if err != nil {
			return nil, err
		}
		stats.ByType[typ] = n
	}
	return stats, nil
}

func (m *Mongo) ResetQueue(ctx context.Context, typ string) (int64, error) {
	f := bson.M{}
	if typ != "" {
		f["type"] = typ
	}

	res, err := m.urls.UpdateMany(ctx, f, bson.M{
		"$set":   bson.M{"is_processed": false},
		"$unset": bson.M{"last_processed": ""},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
