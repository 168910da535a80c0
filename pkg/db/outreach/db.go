package outreach

import (
	"context"
	"log/slog"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_ACCOUNTS      = "accounts"
	COLLECTION_NAME_CUSTOMERS     = "customers"
	COLLECTION_NAME_OUTREACH_JOBS = "outreach-jobs"
)

type OutreachDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBNamePrefix    string
	InstanceIDs     []string
}

func NewOutreachDBService(configs db.DBConfig) (*OutreachDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)

	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	outreachDBSc := &OutreachDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBNamePrefix:    configs.DBNamePrefix,
		InstanceIDs:     configs.InstanceIDs,
	}

	if configs.RunIndexCreation {
		if err := outreachDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for outreach DB: ", slog.String("error", err.Error()))
		}
	}

	return outreachDBSc, nil
}

func (dbService *OutreachDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_outreachDB"
}

func (dbService *OutreachDBService) collectionAccounts(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_ACCOUNTS)
}

func (dbService *OutreachDBService) collectionCustomers(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_CUSTOMERS)
}

func (dbService *OutreachDBService) collectionOutreachJobs(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_OUTREACH_JOBS)
}

func (dbService *OutreachDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *OutreachDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for outreach DB")
	for _, instanceID := range dbService.InstanceIDs {
		ctx, cancel := dbService.getContext()
		defer cancel()

		existing, err := db.ListCollectionIndexes(ctx, dbService.collectionOutreachJobs(instanceID))
		if err != nil {
			slog.Debug("Could not list indexes for outreach jobs", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		} else {
			slog.Debug("Current indexes for outreach jobs", slog.String("instanceID", instanceID), slog.Int("count", len(existing)))
		}

		// Outreach jobs: merge lookup and recent listing
		_, err = dbService.collectionOutreachJobs(instanceID).Indexes().CreateMany(
			ctx,
			[]mongo.IndexModel{
				{
					Keys: bson.D{
						{Key: "accountId", Value: 1},
						{Key: "actionType", Value: 1},
						{Key: "createdAt", Value: -1},
					},
				},
				{
					Keys: bson.D{
						{Key: "createdAt", Value: -1},
					},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for outreach jobs: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Customers: phone lookup
		_, err = dbService.collectionCustomers(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "phone", Value: 1},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for customers: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Accounts
		// add index generation here if needed
	}

	return nil
}
