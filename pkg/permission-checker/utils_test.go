package permissionchecker

import (
	"testing"

	muDB "github.com/assistant-support/web-sale-sub000/pkg/db/management-user"
)

type mockMuDBConnector struct {
	permissions []*muDB.Permission
}

func (m *mockMuDBConnector) GetPermissionBySubjectAndResourceForAction(instanceID string, subjectID string, subjectType string, resourceType string, resourceKeys []string, action string) ([]*muDB.Permission, error) {
	// return permissions after filtering
	filteredPermissions := make([]*muDB.Permission, 0)
	for _, p := range m.permissions {
		if p.SubjectID == subjectID && p.SubjectType == subjectType && p.ResourceType == resourceType && p.Action == action {
			for _, key := range resourceKeys {
				if p.ResourceKey == key {
					filteredPermissions = append(filteredPermissions, p)
					break
				}
			}
		}
	}
	return filteredPermissions, nil
}

func TestIsAuthorized(t *testing.T) {
	t.Parallel()

	accountKey := "66421a0b9f0e4c2d1a3b4c5d"

	connector := &mockMuDBConnector{
		permissions: []*muDB.Permission{
			{
				SubjectID:    "sub1",
				SubjectType:  SUBJECT_TYPE_MANAGEMENT_USER,
				ResourceType: RESOURCE_TYPE_OUTREACH_ACCOUNT,
				ResourceKey:  accountKey,
				Action:       ACTION_MANAGE_JOBS,
			},
			{
				SubjectID:    "sub2",
				SubjectType:  SUBJECT_TYPE_MANAGEMENT_USER,
				ResourceType: RESOURCE_TYPE_OUTREACH_ACCOUNT,
				ResourceKey:  accountKey,
				Action:       ACTION_MANAGE_JOBS,
				Limiter:      []map[string]string{{"actionType": "sendMessage"}},
			},
		},
	}

	tests := []struct {
		name           string
		isAdmin        bool
		subjectID      string
		resourceKeys   []string
		infoForLimiter map[string]string
		expected       bool
	}{
		{
			name:         "admin is always authorized",
			isAdmin:      true,
			subjectID:    "unknown",
			resourceKeys: []string{accountKey},
			expected:     true,
		},
		{
			name:         "no permissions",
			isAdmin:      false,
			subjectID:    "nobody",
			resourceKeys: []string{accountKey},
			expected:     false,
		},
		{
			name:         "permission without limiter",
			isAdmin:      false,
			subjectID:    "sub1",
			resourceKeys: []string{accountKey},
			infoForLimiter: map[string]string{
				"actionType": "addFriend",
			},
			expected: true,
		},
		{
			name:         "limiter matches",
			isAdmin:      false,
			subjectID:    "sub2",
			resourceKeys: []string{accountKey},
			infoForLimiter: map[string]string{
				"actionType": "sendMessage",
			},
			expected: true,
		},
		{
			name:         "limiter does not match",
			isAdmin:      false,
			subjectID:    "sub2",
			resourceKeys: []string{accountKey},
			infoForLimiter: map[string]string{
				"actionType": "addFriend",
			},
			expected: false,
		},
		{
			name:         "wrong resource key",
			isAdmin:      false,
			subjectID:    "sub1",
			resourceKeys: []string{"other-account"},
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAuthorized(
				connector,
				tt.isAdmin,
				"default",
				tt.subjectID,
				SUBJECT_TYPE_MANAGEMENT_USER,
				RESOURCE_TYPE_OUTREACH_ACCOUNT,
				tt.resourceKeys,
				ACTION_MANAGE_JOBS,
				tt.infoForLimiter,
			)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
