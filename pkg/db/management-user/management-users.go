package managementuser

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (dbService *ManagementUserDBService) GetUserByID(instanceID string, userID string) (*ManagementUser, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	var user ManagementUser
	err = dbService.collectionManagementUsers(instanceID).FindOne(ctx, bson.M{"_id": _id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (dbService *ManagementUserDBService) GetUsersByIDs(instanceID string, userIDs []string) ([]ManagementUser, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(userIDs))
	for _, userID := range userIDs {
		_id, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			continue
		}
		ids = append(ids, _id)
	}

	cursor, err := dbService.collectionManagementUsers(instanceID).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	users := []ManagementUser{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetDisplayNames resolves management user ids to display names for the job
// list views. Users without a username fall back to their email address.
func (dbService *ManagementUserDBService) GetDisplayNames(instanceID string, userIDs []string) (map[string]string, error) {
	users, err := dbService.GetUsersByIDs(instanceID, userIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		name := user.Username
		if name == "" {
			name = user.Email
		}
		names[user.ID.Hex()] = name
	}
	return names, nil
}
