package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UsersCollection is the collection owned by the account service.
const UsersCollection = "users"

type userDocument struct {
	ID          any    `bson:"_id"`
	FirstName   string `bson:"firstName"`
	LastName    string `bson:"lastName"`
	Email       string `bson:"email"`
	CustomerRef string `bson:"stripeCustomerId,omitempty"`
}

// MongoUserDirectory implements UserDirectory on the users collection.
// Only the stripeCustomerId field is ever written.
type MongoUserDirectory struct {
	coll *mongo.Collection
}

// NewMongoUserDirectory creates a directory over the users collection of db.
func NewMongoUserDirectory(db *mongo.Database) *MongoUserDirectory {
	return &MongoUserDirectory{coll: db.Collection(UsersCollection)}
}

// GetProfile implements UserDirectory.
func (d *MongoUserDirectory) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var doc userDocument
	err := d.coll.FindOne(ctx, bson.M{"_id": userKey(userID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &Profile{
		UserID:      userID,
		FirstName:   doc.FirstName,
		LastName:    doc.LastName,
		Email:       doc.Email,
		CustomerRef: doc.CustomerRef,
	}, nil
}

// SetCustomerRef implements UserDirectory with a conditional update,
// so the first reference written is the one every caller ends up with.
func (d *MongoUserDirectory) SetCustomerRef(ctx context.Context, userID, ref string) (string, error) {
	filter := bson.M{
		"_id":              userKey(userID),
		"stripeCustomerId": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{"stripeCustomerId": ref}}

	if _, err := d.coll.UpdateOne(ctx, filter, update); err != nil {
		return "", fmt.Errorf("failed to set customer reference: %w", err)
	}

	profile, err := d.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.CustomerRef, nil
}
