package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/model"
)

type AnswerRepo interface {
	Create(ctx context.Context, answer *model.Answer) error
	GetByQuestion(ctx context.Context, questionID string) ([]*model.Answer, error)
	GetBySession(ctx context.Context, sessionID string) ([]*model.Answer, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{collection: db.Collection("answers")}
}

func (r *answerRepo) Create(ctx context.Context, answer *model.Answer) error {
	_, err := r.collection.InsertOne(ctx, answer)
	return err
}

func (r *answerRepo) GetByQuestion(ctx context.Context, questionID string) ([]*model.Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) GetBySession(ctx context.Context, sessionID string) ([]*model.Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
