package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WindowState holds the rolling hour/day usage counters of one sending
// account. Only legacy-model accounts persist this; newer account models
// carry no local quota state and are treated as unlimited.
type WindowState struct {
	RateLimitPerHour    int       `bson:"rateLimitPerHour" json:"rateLimitPerHour"`
	RateLimitPerDay     int       `bson:"rateLimitPerDay" json:"rateLimitPerDay"`
	ActionsUsedThisHour int       `bson:"actionsUsedThisHour" json:"actionsUsedThisHour"`
	ActionsUsedThisDay  int       `bson:"actionsUsedThisDay" json:"actionsUsedThisDay"`
	RateLimitHourStart  time.Time `bson:"rateLimitHourStart" json:"rateLimitHourStart"`
	RateLimitDayStart   time.Time `bson:"rateLimitDayStart" json:"rateLimitDayStart"`

	// Version guards the read-modify-write cycle on the counters, concurrent
	// schedule requests for the same account must not clobber each other.
	Version int64 `bson:"quotaVersion" json:"-"`
}

// Account is one sending account on the messaging platform.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Quota is nil for newer account models that do not track usage locally.
	Quota *WindowState `bson:"quota,omitempty" json:"quota,omitempty"`

	// JobRefs lists the ids of the outreach jobs created for this account.
	JobRefs []primitive.ObjectID `bson:"jobRefs,omitempty" json:"jobRefs,omitempty"`
}

// HasQuotaWindows reports whether the account is a legacy-model account with
// locally tracked usage counters.
func (a Account) HasQuotaWindows() bool {
	return a.Quota != nil
}

// Customer is the system-of-record view of a target person, used to refresh
// possibly stale client-supplied recipient data before scheduling.
type Customer struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	ExternalID string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	Kind       string             `bson:"kind,omitempty" json:"kind,omitempty"`
}
