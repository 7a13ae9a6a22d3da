package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mockmate/internal/model"
)

type SubscriptionRepo interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	// IncrementUsed bumps the used-session counter only while it is still
	// below the limit. Returns whether a slot was actually consumed.
	IncrementUsed(ctx context.Context, id string) (bool, error)
	// DecrementUsed restores one slot, flooring at zero.
	DecrementUsed(ctx context.Context, id string) error
}

type subscriptionRepo struct {
	collection *mongo.Collection
}

func NewSubscriptionRepo(db *mongo.Database) SubscriptionRepo {
	return &subscriptionRepo{collection: db.Collection("subscriptions")}
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	_, err := r.collection.InsertOne(ctx, sub)
	return err
}

func (r *subscriptionRepo) GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	now := time.Now()
	filter := bson.M{
		"userId":      userID,
		"status":      model.SubscriptionActive,
		"periodStart": bson.M{"$lte": now},
		"periodEnd":   bson.M{"$gte": now},
	}

	var sub model.Subscription
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) IncrementUsed(ctx context.Context, id string) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": model.SubscriptionActive,
		"$expr":  bson.M{"$lt": bson.A{"$usedSessions", "$sessionLimit"}},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedSessions": 1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *subscriptionRepo) DecrementUsed(ctx context.Context, id string) error {
	filter := bson.M{
		"_id":          id,
		"usedSessions": bson.M{"$gt": 0},
	}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedSessions": -1}})
	return err
}
