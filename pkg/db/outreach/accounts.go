package outreach

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

func (dbService *OutreachDBService) GetAccountByID(instanceID string, accountID primitive.ObjectID) (*outreachTypes.Account, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var account outreachTypes.Account
	err := dbService.collectionAccounts(instanceID).FindOne(ctx, bson.M{"_id": accountID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (dbService *OutreachDBService) GetAccountsByIDs(instanceID string, accountIDs []primitive.ObjectID) ([]outreachTypes.Account, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionAccounts(instanceID).Find(ctx, bson.M{"_id": bson.M{"$in": accountIDs}})
	if err != nil {
		return nil, err
	}

	accounts := []outreachTypes.Account{}
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateQuotaState writes the advanced counters back. The write is
// conditional on the persisted quotaVersion, a concurrent schedule request
// that already advanced the counters makes this call fail instead of
// silently losing its increments.
func (dbService *OutreachDBService) UpdateQuotaState(instanceID string, accountID primitive.ObjectID, state outreachTypes.WindowState, expectedVersion int64) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"_id":                accountID,
		"quota.quotaVersion": expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"quota.actionsUsedThisHour": state.ActionsUsedThisHour,
			"quota.actionsUsedThisDay":  state.ActionsUsedThisDay,
			"quota.rateLimitHourStart":  state.RateLimitHourStart,
			"quota.rateLimitDayStart":   state.RateLimitDayStart,
			"quota.quotaVersion":        state.Version,
		},
	}

	res, err := dbService.collectionAccounts(instanceID).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return fmt.Errorf("quota state of account %s changed concurrently", accountID.Hex())
	}
	return nil
}

func (dbService *OutreachDBService) AddJobRef(instanceID string, accountID primitive.ObjectID, jobID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccounts(instanceID).UpdateOne(
		ctx,
		bson.M{"_id": accountID},
		bson.M{"$push": bson.M{"jobRefs": jobID}},
	)
	return err
}

func (dbService *OutreachDBService) RemoveJobRef(instanceID string, accountID primitive.ObjectID, jobID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccounts(instanceID).UpdateOne(
		ctx,
		bson.M{"_id": accountID},
		bson.M{"$pull": bson.M{"jobRefs": jobID}},
	)
	return err
}
