package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/model"
)

type ReportRepo interface {
	Save(ctx context.Context, report *model.SessionReport) error
	GetBySession(ctx context.Context, sessionID string) (*model.SessionReport, error)
}

type reportRepo struct {
	collection *mongo.Collection
}

func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{collection: db.Collection("reports")}
}

func (r *reportRepo) Save(ctx context.Context, report *model.SessionReport) error {
	filter := bson.M{"_id": report.SessionID}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, report, opts)
	return err
}

func (r *reportRepo) GetBySession(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	var report model.SessionReport
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
