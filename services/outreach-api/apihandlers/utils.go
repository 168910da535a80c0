package apihandlers

import (
	muDB "github.com/assistant-support/web-sale-sub000/pkg/db/management-user"
	pc "github.com/assistant-support/web-sale-sub000/pkg/permission-checker"
)

// UserInfoResolver exposes the management user DB through the interface the
// outreach service consumes for display names and account delegations.
type UserInfoResolver struct {
	muDBConn *muDB.ManagementUserDBService
}

func NewUserInfoResolver(muDBConn *muDB.ManagementUserDBService) *UserInfoResolver {
	return &UserInfoResolver{muDBConn: muDBConn}
}

func (r *UserInfoResolver) GetDisplayNames(instanceID string, userIDs []string) (map[string]string, error) {
	return r.muDBConn.GetDisplayNames(instanceID, userIDs)
}

func (r *UserInfoResolver) GetPermittedAccountKeys(instanceID string, subjectID string) ([]string, error) {
	return r.muDBConn.GetResourceKeysBySubjectAndResourceType(instanceID, subjectID, pc.RESOURCE_TYPE_OUTREACH_ACCOUNT)
}
