package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// Seeds a demo host with an active subscription so a fresh environment can
// create sessions immediately.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "mockmate"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	users := repository.NewUserRepo(db)
	subscriptions := repository.NewSubscriptionRepo(db)

	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     "host@mockmate.dev",
		Name:      "Demo Host",
		PlanID:    "pro",
		CreatedAt: now,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	sub := &model.Subscription{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		PlanID:       "pro",
		SessionLimit: 20,
		UsedSessions: 0,
		Status:       model.SubscriptionActive,
		PeriodStart:  now,
		PeriodEnd:    now.AddDate(0, 1, 0),
	}
	if err := subscriptions.Create(ctx, sub); err != nil {
		log.Fatalf("Failed to create subscription: %v", err)
	}

	fmt.Printf("Seeded user %s with %d sessions/month\n", user.Email, sub.SessionLimit)
}
