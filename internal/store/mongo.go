package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/shoplist/internal/model"
)

// MongoConfig selects the document database holding the lists collection.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// MongoStore keeps each list as one document {_id, items, createdAt}. Every
// mutation is a single-document update, atomic at the document level.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to the server and pings it before returning.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "shoplist"
	}
	if cfg.Collection == "" {
		cfg.Collection = "lists"
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateList(ctx context.Context) (string, error) {
	list := model.NewList(time.Now())
	if _, err := s.coll.InsertOne(ctx, list); err != nil {
		return "", fmt.Errorf("insert list: %w", err)
	}
	return list.ID, nil
}

func (s *MongoStore) Items(ctx context.Context, listID string) ([]model.Item, error) {
	var list model.List
	err := s.coll.FindOne(ctx, bson.M{"_id": listID}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find list: %w", err)
	}
	return model.Clone(list.Items), nil
}

func (s *MongoStore) AppendItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error) {
	item := model.NewItem(draft)
	items, err := s.findAndUpdate(ctx, bson.M{"_id": listID}, bson.M{"$push": bson.M{"items": item}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrListNotFound
	}
	return items, err
}

func (s *MongoStore) UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error) {
	if patch.IsEmpty() {
		items, err := s.Items(ctx, listID)
		if err != nil {
			return nil, err
		}
		if model.IndexOf(items, itemID) < 0 {
			return nil, ErrItemNotFound
		}
		return items, nil
	}

	set := bson.M{}
	if patch.Name != nil {
		set["items.$.name"] = *patch.Name
	}
	if patch.Quantity != nil {
		set["items.$.quantity"] = *patch.Quantity
	}
	if patch.Observation != nil {
		set["items.$.observation"] = *patch.Observation
	}
	if patch.Paid != nil {
		set["items.$.paid"] = *patch.Paid
	}
	if patch.Price != nil {
		set["items.$.price"] = *patch.Price
	}
	if patch.Paid != nil && !*patch.Paid {
		set["items.$.price"] = 0.0
	}

	items, err := s.findAndUpdate(ctx, bson.M{"_id": listID, "items.itemId": itemID}, bson.M{"$set": set})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missing(ctx, listID)
	}
	return items, err
}

func (s *MongoStore) DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error) {
	items, err := s.findAndUpdate(ctx,
		bson.M{"_id": listID, "items.itemId": itemID},
		bson.M{"$pull": bson.M{"items": bson.M{"itemId": itemID}}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missing(ctx, listID)
	}
	return items, err
}

func (s *MongoStore) ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error) {
	out, err := s.findAndUpdate(ctx, bson.M{"_id": listID}, bson.M{"$set": bson.M{"items": model.Clone(items)}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrListNotFound
	}
	return out, err
}

func (s *MongoStore) DeleteList(ctx context.Context, listID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": listID})
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrListNotFound
	}
	return nil
}

// findAndUpdate applies update to the document matched by filter and returns
// the items as they are after the update. mongo.ErrNoDocuments is returned
// unwrapped so callers can classify it.
func (s *MongoStore) findAndUpdate(ctx context.Context, filter, update bson.M) ([]model.Item, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var list model.List
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return model.Clone(list.Items), nil
}

// missing tells apart an unknown list from an unknown item after a filtered
// update matched nothing.
func (s *MongoStore) missing(ctx context.Context, listID string) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": listID})
	if err != nil {
		return fmt.Errorf("count lists: %w", err)
	}
	if n == 0 {
		return ErrListNotFound
	}
	return ErrItemNotFound
}
