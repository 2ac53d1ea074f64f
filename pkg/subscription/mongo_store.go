package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SubscriptionsCollection is the default collection for subscription records.
const SubscriptionsCollection = "subscriptions"

type recordDocument struct {
	ID                 bson.ObjectID `bson:"_id"`
	User               any           `bson:"user"`
	CustomerRef        string        `bson:"stripeCustomerId,omitempty"`
	SubscriptionRef    string        `bson:"stripeSubscriptionId,omitempty"`
	Status             Status        `bson:"status"`
	Plan               Plan          `bson:"plan,omitempty"`
	CurrentPeriodStart time.Time     `bson:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   time.Time     `bson:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool          `bson:"cancelAtPeriodEnd"`
	CreatedAt          time.Time     `bson:"createdAt"`
	UpdatedAt          time.Time     `bson:"updatedAt"`
}

func (d recordDocument) record() *Record {
	return &Record{
		ID:                 d.ID.Hex(),
		UserID:             userIDFromKey(d.User),
		CustomerRef:        d.CustomerRef,
		SubscriptionRef:    d.SubscriptionRef,
		Status:             d.Status,
		Plan:               d.Plan,
		CurrentPeriodStart: d.CurrentPeriodStart,
		CurrentPeriodEnd:   d.CurrentPeriodEnd,
		CancelAtPeriodEnd:  d.CancelAtPeriodEnd,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the subscriptions collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(SubscriptionsCollection)}
}

// EnsureIndexes creates the indexes the store queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys:    bson.D{{Key: "stripeSubscriptionId", Value: 1}},
			Options: options.Index().SetName("subscription_ref"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	return nil
}

// FindLatestByUser implements Store.
func (s *MongoStore) FindLatestByUser(ctx context.Context, userID string, statuses ...Status) (*Record, error) {
	filter := bson.M{"user": userKey(userID)}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return s.findOne(ctx, filter, opts)
}

// FindBySubscriptionRef implements Store.
func (s *MongoStore) FindBySubscriptionRef(ctx context.Context, subscriptionRef string) (*Record, error) {
	if subscriptionRef == "" {
		return nil, ErrRecordNotFound
	}
	return s.findOne(ctx, bson.M{"stripeSubscriptionId": subscriptionRef}, nil)
}

// Save implements Store as a single-document upsert.
func (s *MongoStore) Save(ctx context.Context, record *Record) error {
	var id bson.ObjectID
	if record.ID == "" {
		id = bson.NewObjectID()
	} else {
		var err error
		if id, err = bson.ObjectIDFromHex(record.ID); err != nil {
			return fmt.Errorf("invalid subscription id %q: %w", record.ID, err)
		}
	}

	doc := recordDocument{
		ID:                 id,
		User:               userKey(record.UserID),
		CustomerRef:        record.CustomerRef,
		SubscriptionRef:    record.SubscriptionRef,
		Status:             record.Status,
		Plan:               record.Plan,
		CurrentPeriodStart: record.CurrentPeriodStart,
		CurrentPeriodEnd:   record.CurrentPeriodEnd,
		CancelAtPeriodEnd:  record.CancelAtPeriodEnd,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
	if doc.Status == "" {
		doc.Status = StatusInactive
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	record.ID = id.Hex()
	record.Status = doc.Status
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptionsBuilder) (*Record, error) {
	var res *mongo.SingleResult
	if opts != nil {
		res = s.coll.FindOne(ctx, filter, opts)
	} else {
		res = s.coll.FindOne(ctx, filter)
	}

	var doc recordDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return doc.record(), nil
}

// userKey stores hex user IDs as ObjectIDs so they match the users collection.
func userKey(userID string) any {
	if oid, err := bson.ObjectIDFromHex(userID); err == nil {
		return oid
	}
	return userID
}

func userIDFromKey(v any) string {
	switch id := v.(type) {
	case bson.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
