package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action types a job can carry. One job always holds exactly one action type.
const (
	ACTION_TYPE_LOOKUP_IDENTITY = "lookupIdentity"
	ACTION_TYPE_SEND_MESSAGE    = "sendMessage"
	ACTION_TYPE_ADD_FRIEND      = "addFriend"
	ACTION_TYPE_CHECK_FRIEND    = "checkFriend"
)

func IsValidActionType(actionType string) bool {
	switch actionType {
	case ACTION_TYPE_LOOKUP_IDENTITY,
		ACTION_TYPE_SEND_MESSAGE,
		ACTION_TYPE_ADD_FRIEND,
		ACTION_TYPE_CHECK_FRIEND:
		return true
	}
	return false
}

// Recipient is a snapshot of a target person at scheduling time. It is
// immutable once placed into a task.
type Recipient struct {
	CustomerID primitive.ObjectID `bson:"customerId,omitempty" json:"customerId,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	ExternalID string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	Kind       string             `bson:"kind,omitempty" json:"kind,omitempty"`
}

// Task is one scheduled action against one recipient. After creation it is
// only mutated by the executor (Completed and ResultRef).
type Task struct {
	Recipient    Recipient           `bson:"recipient" json:"recipient"`
	ScheduledFor time.Time           `bson:"scheduledFor" json:"scheduledFor"`
	Completed    bool                `bson:"completed" json:"completed"`
	ResultRef    *primitive.ObjectID `bson:"resultRef,omitempty" json:"resultRef,omitempty"`
}

type JobConfig struct {
	ActionsPerHour  int    `bson:"actionsPerHour" json:"actionsPerHour"`
	MessageTemplate string `bson:"messageTemplate,omitempty" json:"messageTemplate,omitempty"`
}

type JobStatistics struct {
	Total     int `bson:"total" json:"total"`
	Completed int `bson:"completed" json:"completed"`
	Failed    int `bson:"failed" json:"failed"`
}

// Job is a persisted batch of scheduled tasks sharing one account and one
// action type.
type Job struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                    string             `bson:"name" json:"name"`
	ActionType              string             `bson:"actionType" json:"actionType"`
	AccountID               primitive.ObjectID `bson:"accountId" json:"accountId"`
	Tasks                   []Task             `bson:"tasks" json:"tasks"`
	Config                  JobConfig          `bson:"config" json:"config"`
	Statistics              JobStatistics      `bson:"statistics" json:"statistics"`
	CreatedBy               string             `bson:"createdBy" json:"createdBy"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	EstimatedCompletionTime time.Time          `bson:"estimatedCompletionTime" json:"estimatedCompletionTime"`
	IsManualAction          bool               `bson:"isManualAction" json:"isManualAction"`
}

// IsInFlight reports whether the job still has tasks the executor has not
// resolved yet.
func (j Job) IsInFlight() bool {
	return j.Statistics.Completed+j.Statistics.Failed < j.Statistics.Total
}

// HasRecipientWithPhone is used for deduplication when extending a job.
func (j Job) HasRecipientWithPhone(phone string) bool {
	for _, t := range j.Tasks {
		if t.Recipient.Phone == phone {
			return true
		}
	}
	return false
}
