package outreach

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/context"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

// GetCustomersByIDs is the batch read against the system of record, used to
// refresh recipient identity handles before scheduling.
func (dbService *OutreachDBService) GetCustomersByIDs(instanceID string, customerIDs []primitive.ObjectID) ([]outreachTypes.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{
		"name":       1,
		"phone":      1,
		"externalId": 1,
		"kind":       1,
	})

	cursor, err := dbService.collectionCustomers(instanceID).Find(ctx, bson.M{"_id": bson.M{"$in": customerIDs}}, opts)
	if err != nil {
		return nil, err
	}

	customers := []outreachTypes.Customer{}
	if err = cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}
