package permissionchecker

const (
	SUBJECT_TYPE_MANAGEMENT_USER = "management-user"
	SUBJECT_TYPE_SERVICE_ACCOUNT = "service-account"
)

const (
	RESOURCE_TYPE_OUTREACH_ACCOUNT = "outreach-account"
)

const (
	RESOURCE_KEY_ALL = "*"

	ACTION_MANAGE_JOBS = "manage-jobs"

	ACTION_ALL = "*"
)
