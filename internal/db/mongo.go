package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ItemsCollection = "items"
	UsersCollection = "users"
)

// OpenMongo connects to MongoDB and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

func requiredStrings(fields ...string) bson.M {
	props := bson.M{}
	for _, f := range fields {
		props[f] = bson.M{"bsonType": "string", "minLength": 1}
	}
	return props
}

var itemsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"name", "email", "phoneNumber", "title", "description", "location", "itemType", "image", "createdAt", "updatedAt"},
		"properties": func() bson.M {
			props := requiredStrings("name", "email", "phoneNumber", "title", "description", "location", "image")
			props["itemType"] = bson.M{"enum": bson.A{"lost", "found"}}
			return props
		}(),
	},
}

var usersValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   bson.A{"name", "email", "password", "createdAt", "updatedAt"},
		"properties": requiredStrings("name", "email", "password"),
	},
}

// EnsureMongoSchema creates the items and users collections with schema
// validators and indexes. It is safe to call on every start.
func EnsureMongoSchema(ctx context.Context, database *mongo.Database) error {
	collections := []struct {
		name      string
		validator bson.M
	}{
		{ItemsCollection, itemsValidator},
		{UsersCollection, usersValidator},
	}

	for _, c := range collections {
		err := database.CreateCollection(ctx, c.name, options.CreateCollection().SetValidator(c.validator))
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			err = database.RunCommand(ctx, bson.D{
				{Key: "collMod", Value: c.name},
				{Key: "validator", Value: c.validator},
			}).Err()
		}
		if err != nil {
			return fmt.Errorf("ensuring collection %s: %w", c.name, err)
		}
	}

	_, err := database.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("creating users email index: %w", err)
	}

	_, err = database.Collection(ItemsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "itemType", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating items indexes: %w", err)
	}

	return nil
}
