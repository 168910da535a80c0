package outreach

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

// Store contracts implemented by pkg/db/outreach and pkg/db/management-user.
// The service only talks to these interfaces, tests use in-memory fakes.

type JobStore interface {
	// CreateJob inserts the job and returns it with its assigned id.
	CreateJob(instanceID string, job outreachTypes.Job) (outreachTypes.Job, error)

	// FindInFlightJob returns the in-flight job for the account and action
	// type, nil when there is none.
	FindInFlightJob(instanceID string, accountID primitive.ObjectID, actionType string) (*outreachTypes.Job, error)

	// AppendTasks appends tasks to an existing job, increments the total
	// counter by len(tasks) and moves the estimated completion time.
	AppendTasks(instanceID string, jobID primitive.ObjectID, tasks []outreachTypes.Task, estimatedCompletion time.Time) error

	// GetJobByID returns nil when the job does not exist.
	GetJobByID(instanceID string, jobID primitive.ObjectID) (*outreachTypes.Job, error)

	// GetRecentJobs returns the most recently created jobs, newest first.
	// A nil accountIDs filter means all accounts.
	GetRecentJobs(instanceID string, accountIDs []primitive.ObjectID, limit int) ([]outreachTypes.Job, error)

	DeleteJob(instanceID string, jobID primitive.ObjectID) error
}

type AccountStore interface {
	// GetAccountByID returns nil when the account does not exist.
	GetAccountByID(instanceID string, accountID primitive.ObjectID) (*outreachTypes.Account, error)

	GetAccountsByIDs(instanceID string, accountIDs []primitive.ObjectID) ([]outreachTypes.Account, error)

	// UpdateQuotaState writes the counters back conditionally: the write only
	// applies while the persisted quotaVersion still equals expectedVersion.
	UpdateQuotaState(instanceID string, accountID primitive.ObjectID, state outreachTypes.WindowState, expectedVersion int64) error

	AddJobRef(instanceID string, accountID primitive.ObjectID, jobID primitive.ObjectID) error
	RemoveJobRef(instanceID string, accountID primitive.ObjectID, jobID primitive.ObjectID) error
}

type CustomerStore interface {
	GetCustomersByIDs(instanceID string, customerIDs []primitive.ObjectID) ([]outreachTypes.Customer, error)
}

type UserInfoResolver interface {
	// GetDisplayNames resolves management user ids to display names. Unknown
	// ids are simply absent from the result.
	GetDisplayNames(instanceID string, userIDs []string) (map[string]string, error)

	// GetPermittedAccountKeys returns the account resource keys delegated to
	// the subject, "*" meaning all accounts.
	GetPermittedAccountKeys(instanceID string, subjectID string) ([]string, error)
}

// CacheInvalidator signals the read cache that job state changed. Calls are
// fire-and-forget, implementations never return errors.
type CacheInvalidator interface {
	InvalidateTags(tags ...string)
}
