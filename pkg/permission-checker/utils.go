package permissionchecker

import (
	muDB "github.com/assistant-support/web-sale-sub000/pkg/db/management-user"
)

type MuDBConnector interface {
	GetPermissionBySubjectAndResourceForAction(instanceID string, subjectID string, subjectType string, resourceType string, resourceKeys []string, action string) ([]*muDB.Permission, error)
}

func IsAuthorized(db MuDBConnector,
	isAdmin bool,
	instanceID string,
	subjectID string,
	subjectType string,
	resourceType string,
	resourceKeys []string,
	action string,
	infoForLimiter map[string]string,
) bool {
	if isAdmin {
		return true
	}

	permissions, err := db.GetPermissionBySubjectAndResourceForAction(instanceID, subjectID, subjectType, resourceType, resourceKeys, action)
	if err != nil {
		return false
	}

	// if there are no permissions, then the user is not authorized
	if len(permissions) == 0 {
		return false
	}

	for _, permission := range permissions {
		// if at least one permission matches the limiter info, then the user is authorized
		if checkLimiter(permission, infoForLimiter) {
			return true
		}
	}

	return false
}

func checkLimiter(permission *muDB.Permission, infoForLimiter map[string]string) bool {
	// an empty limiter or an action that does not use one means no limit
	if permission.Limiter == nil || infoForLimiter == nil {
		return true
	}

	for _, limiter := range permission.Limiter {
		if compareLimiter(infoForLimiter, limiter) {
			return true
		}
	}

	return false
}

func compareLimiter(infoForLimiter map[string]string, limiter map[string]string) bool {
	for k, v := range infoForLimiter {
		if limiter[k] != v {
			return false
		}
	}
	return true
}
