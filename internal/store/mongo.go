package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/lostfound/lostfound/internal/db"
	"github.com/lostfound/lostfound/internal/model"
)

// DefaultMongoDatabase is used when neither the URI nor the configuration
// names a database.
const DefaultMongoDatabase = "lostandfound"

// documentValidationFailure is the server error code for a write rejected
// by a collection's $jsonSchema validator.
const documentValidationFailure = 121

// MongoStore is a Store backed by MongoDB.
type MongoStore struct {
	client *mongo.Client
	items  *mongo.Collection
	users  *mongo.Collection
}

// OpenMongoStore connects to MongoDB, selects the database and ensures the
// collections, validators and indexes exist.
func OpenMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		cs, err := connstring.ParseAndValidate(uri)
		if err != nil {
			return nil, fmt.Errorf("parsing mongodb uri: %w", err)
		}
		database = cs.Database
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	client, err := db.OpenMongo(ctx, uri)
	if err != nil {
		return nil, err
	}

	mdb := client.Database(database)
	if err := db.EnsureMongoSchema(ctx, mdb); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return NewMongoStore(client, mdb), nil
}

// NewMongoStore wraps a connected client and database whose schema is
// already in place.
func NewMongoStore(client *mongo.Client, database *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		items:  database.Collection(db.ItemsCollection),
		users:  database.Collection(db.UsersCollection),
	}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mongoNow returns the current time at the millisecond precision BSON
// dates keep.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isDocumentValidationFailure(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == documentValidationFailure {
				return true
			}
		}
	}
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == documentValidationFailure
}

func mongoWriteError(op string, err error) error {
	if isDocumentValidationFailure(err) {
		return fmt.Errorf("%s: %w", op, &ValidationError{Violations: map[string]string{"record": "schema"}})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateItem creates a new item.
func (s *MongoStore) CreateItem(ctx context.Context, item *model.Item) error {
	if err := validateItem(item); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	doc := *item
	doc.ID = uuid.NewString()
	doc.CreatedAt = mongoNow()
	doc.UpdatedAt = doc.CreatedAt
	if doc.Date != nil {
		d := doc.Date.UTC().Truncate(time.Millisecond)
		doc.Date = &d
	}

	if _, err := s.items.InsertOne(ctx, doc); err != nil {
		return mongoWriteError("creating item", err)
	}

	*item = doc
	return nil
}

// GetItem returns an item by ID.
func (s *MongoStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := s.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// ListItems returns items matching filter, newest first.
func (s *MongoStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["itemType"] = filter.Type
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := s.items.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer cur.Close(ctx)

	var items []model.Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return items, nil
}

// DeleteItem removes an item.
func (s *MongoStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	res, err := s.items.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// SetLoserContact records how to reach the person who lost an item.
func (s *MongoStore) SetLoserContact(ctx context.Context, id, phone, email string) (*model.Item, error) {
	set := bson.M{"updatedAt": mongoNow()}
	if phone != "" {
		set["loserPhone"] = phone
	}
	if email != "" {
		set["loserEmail"] = email
	}

	var item model.Item
	err := s.items.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("setting loser contact: %w", err)
	}
	return &item, nil
}

// CreateUser creates a new user. The email is stored normalized.
func (s *MongoStore) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	if err := validateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	doc := *user
	doc.ID = uuid.NewString()
	doc.CreatedAt = mongoNow()
	doc.UpdatedAt = doc.CreatedAt

	_, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("creating user: %w", ErrDuplicateEmail)
	}
	if err != nil {
		return mongoWriteError("creating user", err)
	}

	*user = doc
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser returns a user by ID.
func (s *MongoStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.findUser(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by normalized email.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.findUser(ctx, bson.M{"email": model.NormalizeEmail(email)})
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUserProfile updates the non-nil profile fields of a user.
func (s *MongoStore) UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*model.User, error) {
	if update.Empty() {
		return s.GetUser(ctx, id)
	}

	set := bson.M{"updatedAt": mongoNow()}
	add := func(field string, value *string) {
		if value != nil {
			set[field] = *value
		}
	}
	add("name", update.Name)
	add("phoneNumber", update.PhoneNumber)
	add("address", update.Address)
	add("city", update.City)
	add("bio", update.Bio)
	add("profileImage", update.ProfileImage)

	var u model.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mongoWriteError("updating user profile", err)
	}
	return &u, nil
}
