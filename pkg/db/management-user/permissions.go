package managementuser

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Create permission
func (dbService *ManagementUserDBService) CreatePermission(
	instanceID string,
	subjectID string,
	subjectType string,
	resourceType string,
	resourceKey string,
	action string,
	limiter []map[string]string,
) (*Permission, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	permission := &Permission{
		SubjectID:    subjectID,
		SubjectType:  subjectType,
		ResourceType: resourceType,
		ResourceKey:  resourceKey,
		Action:       action,
		Limiter:      limiter,
	}

	res, err := dbService.collectionPermissions(instanceID).InsertOne(ctx, permission)
	if err != nil {
		return nil, err
	}
	permission.ID = res.InsertedID.(primitive.ObjectID)
	return permission, nil
}

func (dbService *ManagementUserDBService) GetPermissionBySubjectAndResourceForAction(
	instanceID string,
	subjectID string,
	subjectType string,
	resourceType string,
	resourceKeys []string,
	action string,
) ([]*Permission, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"subjectId":    subjectID,
		"subjectType":  subjectType,
		"resourceType": resourceType,
		"resourceKey":  bson.M{"$in": append(resourceKeys, "*")},
		"action":       bson.M{"$in": bson.A{action, "*"}},
	}

	cursor, err := dbService.collectionPermissions(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	permissions := []*Permission{}
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

// GetResourceKeysBySubjectAndResourceType lists the resource keys of the
// given type delegated to the subject, used to pre-filter job list queries.
func (dbService *ManagementUserDBService) GetResourceKeysBySubjectAndResourceType(
	instanceID string,
	subjectID string,
	resourceType string,
) ([]string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"subjectId":    subjectID,
		"resourceType": resourceType,
	}

	cursor, err := dbService.collectionPermissions(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	permissions := []Permission{}
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(permissions))
	seen := map[string]bool{}
	for _, p := range permissions {
		if seen[p.ResourceKey] {
			continue
		}
		seen[p.ResourceKey] = true
		keys = append(keys, p.ResourceKey)
	}
	return keys, nil
}

func (dbService *ManagementUserDBService) DeletePermission(instanceID string, permissionID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(permissionID)
	if err != nil {
		return err
	}

	_, err = dbService.collectionPermissions(instanceID).DeleteOne(ctx, bson.M{"_id": _id})
	return err
}
