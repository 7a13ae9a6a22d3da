package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/model"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListByHost(ctx context.Context, hostID string) ([]*model.Session, error)
	// Transition moves a session from one of the expected statuses to the
	// target status. The status filter makes the update a compare-and-swap:
	// a stale caller matches nothing and gets false back.
	Transition(ctx context.Context, id string, from []model.SessionStatus, update *model.Session) (bool, error)
	SetRecordingURL(ctx context.Context, id, url string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{collection: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByHost(ctx context.Context, hostID string) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"hostId": hostID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Transition(ctx context.Context, id string, from []model.SessionStatus, update *model.Session) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	set := bson.M{"status": update.Status}
	if update.StartedAt != nil {
		set["startedAt"] = update.StartedAt
	}
	if update.EndedAt != nil {
		set["endedAt"] = update.EndedAt
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *sessionRepo) SetRecordingURL(ctx context.Context, id, url string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"recordingUrl": url}})
	return err
}
