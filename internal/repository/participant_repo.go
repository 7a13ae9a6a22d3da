package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/model"
)

type ParticipantRepo interface {
	// Upsert writes the participant row keyed by (session, user). Rows are
	// never deleted; a leave only flips the online flag and stamps leftAt.
	Upsert(ctx context.Context, p *model.Participant) error
	GetBySession(ctx context.Context, sessionID string) ([]*model.Participant, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Participant, error)
}

type participantRepo struct {
	collection *mongo.Collection
}

func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{collection: db.Collection("participants")}
}

func (r *participantRepo) Upsert(ctx context.Context, p *model.Participant) error {
	filter := bson.M{"sessionId": p.SessionID, "userId": p.UserID}
	update := bson.M{"$set": p}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *participantRepo) GetBySession(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepo) GetByUser(ctx context.Context, userID string) ([]*model.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}
