package outreach

import (
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/assistant-support/web-sale-sub000/pkg/outreach/quota"
	"github.com/assistant-support/web-sale-sub000/pkg/outreach/scheduler"
	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

// Cache tags invalidated after every job mutation.
const (
	CACHE_TAG_RUNNING_SCHEDULES      = "running-schedules"
	CACHE_TAG_COMBINED_CUSTOMER_DATA = "combined-customer-data"
)

const (
	MIN_ACTIONS_PER_HOUR = 1
	MAX_ACTIONS_PER_HOUR = 30

	RUNNING_JOBS_LIMIT = 50
)

type Service struct {
	jobs      JobStore
	accounts  AccountStore
	customers CustomerStore
	users     UserInfoResolver
	cache     CacheInvalidator

	// now is swapped out in tests.
	now func() time.Time
}

func NewService(
	jobs JobStore,
	accounts AccountStore,
	customers CustomerStore,
	users UserInfoResolver,
	cache CacheInvalidator,
) *Service {
	return &Service{
		jobs:      jobs,
		accounts:  accounts,
		customers: customers,
		users:     users,
		cache:     cache,
		now:       time.Now,
	}
}

type CreateJobRequest struct {
	AccountID       primitive.ObjectID
	ActionType      string
	Recipients      []outreachTypes.Recipient
	ActionsPerHour  int
	JobName         string
	MessageTemplate string
	IsManualAction  bool
	CreatedBy       string
}

type CreateJobResult struct {
	Job      *outreachTypes.Job
	Added    int
	Skipped  int
	Extended bool
	Message  string
}

// CreateOrExtendJob schedules the given recipients for the account. For
// identity lookup actions an in-flight job for the same account is extended
// instead of creating a second one, recipients already present in that job
// (matched by phone) are skipped silently.
func (s *Service) CreateOrExtendJob(instanceID string, req CreateJobRequest) (*CreateJobResult, error) {
	if len(req.Recipients) < 1 {
		return nil, newValidationError("recipient list is empty")
	}
	if req.AccountID.IsZero() {
		return nil, newValidationError("no sending account selected")
	}
	if !outreachTypes.IsValidActionType(req.ActionType) {
		return nil, newValidationError(fmt.Sprintf("unknown action type '%s'", req.ActionType))
	}
	for _, r := range req.Recipients {
		if r.Phone == "" {
			return nil, newValidationError("recipient without phone number")
		}
	}
	if req.ActionsPerHour < MIN_ACTIONS_PER_HOUR {
		req.ActionsPerHour = MIN_ACTIONS_PER_HOUR
	}
	if req.ActionsPerHour > MAX_ACTIONS_PER_HOUR {
		req.ActionsPerHour = MAX_ACTIONS_PER_HOUR
	}

	account, err := s.accounts.GetAccountByID(instanceID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	recipients, err := s.refreshRecipients(instanceID, req.Recipients)
	if err != nil {
		return nil, err
	}

	accountQuota := quota.ForAccount(*account)

	if req.ActionType == outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY {
		existing, err := s.jobs.FindInFlightJob(instanceID, account.ID, req.ActionType)
		if err != nil {
			return nil, fmt.Errorf("failed to look up in-flight job: %w", err)
		}
		if existing != nil {
			return s.extendJob(instanceID, *account, accountQuota, existing, recipients, req)
		}
	}

	return s.createJob(instanceID, *account, accountQuota, recipients, req)
}

// refreshRecipients replaces client-supplied identity handles with the
// current system-of-record values. Recipients without a resolvable handle
// stay in the list, the executor reports a per-task failure for them at run
// time instead of this call hiding the record.
func (s *Service) refreshRecipients(instanceID string, recipients []outreachTypes.Recipient) ([]outreachTypes.Recipient, error) {
	customerIDs := make([]primitive.ObjectID, 0, len(recipients))
	for _, r := range recipients {
		if !r.CustomerID.IsZero() {
			customerIDs = append(customerIDs, r.CustomerID)
		}
	}
	if len(customerIDs) == 0 {
		return recipients, nil
	}

	customers, err := s.customers.GetCustomersByIDs(instanceID, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	byID := make(map[primitive.ObjectID]outreachTypes.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	refreshed := make([]outreachTypes.Recipient, len(recipients))
	for i, r := range recipients {
		if c, ok := byID[r.CustomerID]; ok {
			r.ExternalID = c.ExternalID
			if r.Kind == "" {
				r.Kind = c.Kind
			}
		}
		refreshed[i] = r
	}
	return refreshed, nil
}

func (s *Service) extendJob(
	instanceID string,
	account outreachTypes.Account,
	accountQuota quota.Quota,
	existing *outreachTypes.Job,
	recipients []outreachTypes.Recipient,
	req CreateJobRequest,
) (*CreateJobResult, error) {
	seen := make(map[string]bool, len(existing.Tasks))
	for _, t := range existing.Tasks {
		seen[t.Recipient.Phone] = true
	}

	toAdd := make([]outreachTypes.Recipient, 0, len(recipients))
	skipped := 0
	for _, r := range recipients {
		if seen[r.Phone] {
			skipped++
			continue
		}
		seen[r.Phone] = true
		toAdd = append(toAdd, r)
	}

	if len(toAdd) == 0 {
		return &CreateJobResult{
			Job:      existing,
			Skipped:  skipped,
			Extended: true,
			Message:  "nothing to add, all recipients are already scheduled",
		}, nil
	}

	res := scheduler.Schedule(toAdd, accountQuota, req.ActionsPerHour, req.ActionType, existing.EstimatedCompletionTime, s.now())

	if err := s.jobs.AppendTasks(instanceID, existing.ID, res.Tasks, res.EstimatedCompletion); err != nil {
		return nil, fmt.Errorf("failed to append tasks: %w", err)
	}
	if err := s.persistQuotaState(instanceID, account, accountQuota); err != nil {
		return nil, err
	}
	s.invalidateJobCaches()

	existing.Tasks = append(existing.Tasks, res.Tasks...)
	existing.Statistics.Total += len(res.Tasks)
	existing.EstimatedCompletionTime = res.EstimatedCompletion

	return &CreateJobResult{
		Job:      existing,
		Added:    len(toAdd),
		Skipped:  skipped,
		Extended: true,
		Message:  extendMessage(len(toAdd), skipped),
	}, nil
}

func (s *Service) createJob(
	instanceID string,
	account outreachTypes.Account,
	accountQuota quota.Quota,
	recipients []outreachTypes.Recipient,
	req CreateJobRequest,
) (*CreateJobResult, error) {
	now := s.now()
	res := scheduler.Schedule(recipients, accountQuota, req.ActionsPerHour, req.ActionType, time.Time{}, now)

	name := req.JobName
	if name == "" {
		name = fmt.Sprintf("%s %s", req.ActionType, now.Format("2006-01-02 15:04"))
	}

	job := outreachTypes.Job{
		Name:       name,
		ActionType: req.ActionType,
		AccountID:  account.ID,
		Tasks:      res.Tasks,
		Config: outreachTypes.JobConfig{
			ActionsPerHour:  req.ActionsPerHour,
			MessageTemplate: req.MessageTemplate,
		},
		Statistics: outreachTypes.JobStatistics{
			Total: len(res.Tasks),
		},
		CreatedBy:               req.CreatedBy,
		CreatedAt:               now,
		EstimatedCompletionTime: res.EstimatedCompletion,
		IsManualAction:          req.IsManualAction,
	}

	created, err := s.jobs.CreateJob(instanceID, job)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.accounts.AddJobRef(instanceID, account.ID, created.ID); err != nil {
		return nil, fmt.Errorf("failed to register job on account: %w", err)
	}
	if err := s.persistQuotaState(instanceID, account, accountQuota); err != nil {
		return nil, err
	}
	s.invalidateJobCaches()

	return &CreateJobResult{
		Job:     &created,
		Added:   len(res.Tasks),
		Message: fmt.Sprintf("%d tasks scheduled", len(res.Tasks)),
	}, nil
}

// persistQuotaState writes the advanced counters back, legacy accounts only.
// Newer account models expose no state and nothing is written for them.
func (s *Service) persistQuotaState(instanceID string, account outreachTypes.Account, accountQuota quota.Quota) error {
	state := accountQuota.State()
	if state == nil {
		return nil
	}

	expectedVersion := account.Quota.Version
	updated := *state
	updated.Version = expectedVersion + 1

	if err := s.accounts.UpdateQuotaState(instanceID, account.ID, updated, expectedVersion); err != nil {
		return fmt.Errorf("failed to update account quota state: %w", err)
	}
	return nil
}

// CancelJob deletes the job and removes its back-reference from the owning
// account. Cancellation is terminal, the executor treats writes against a
// deleted job as a no-op.
func (s *Service) CancelJob(instanceID string, jobID primitive.ObjectID) error {
	job, err := s.jobs.GetJobByID(instanceID, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return ErrJobNotFound
	}

	if err := s.jobs.DeleteJob(instanceID, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if err := s.accounts.RemoveJobRef(instanceID, job.AccountID, jobID); err != nil {
		return fmt.Errorf("failed to remove job reference from account: %w", err)
	}
	s.invalidateJobCaches()
	return nil
}

func (s *Service) invalidateJobCaches() {
	// Best effort, the invalidator swallows failures and never blocks the
	// primary operation.
	s.cache.InvalidateTags(CACHE_TAG_RUNNING_SCHEDULES, CACHE_TAG_COMBINED_CUSTOMER_DATA)
}

func extendMessage(added int, skipped int) string {
	if skipped == 1 {
		return fmt.Sprintf("%d added, 1 duplicate skipped", added)
	}
	if skipped > 1 {
		return fmt.Sprintf("%d added, %d duplicates skipped", added, skipped)
	}
	return fmt.Sprintf("%d added", added)
}

// Actor identifies the management user calling the query service.
type Actor struct {
	ID      string
	IsAdmin bool
}

// JobWithMeta is a job enriched with display fields for the job list views.
type JobWithMeta struct {
	outreachTypes.Job
	AccountName   string `json:"accountName"`
	AccountAvatar string `json:"accountAvatar,omitempty"`
	CreatedByName string `json:"createdByName,omitempty"`
}

// ListRunningJobs returns the most recent jobs visible to the actor. Non
// admin actors only see jobs of accounts delegated to them, an actor without
// any delegated account gets an empty list.
func (s *Service) ListRunningJobs(instanceID string, actor Actor) ([]JobWithMeta, error) {
	var accountFilter []primitive.ObjectID
	if !actor.IsAdmin {
		keys, err := s.users.GetPermittedAccountKeys(instanceID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load account permissions: %w", err)
		}
		unrestricted := false
		for _, key := range keys {
			if key == "*" {
				unrestricted = true
				break
			}
			accountID, err := primitive.ObjectIDFromHex(key)
			if err != nil {
				slog.Warn("ignoring malformed account resource key", slog.String("key", key), slog.String("subjectID", actor.ID))
				continue
			}
			accountFilter = append(accountFilter, accountID)
		}
		if !unrestricted && len(accountFilter) == 0 {
			return []JobWithMeta{}, nil
		}
		if unrestricted {
			accountFilter = nil
		}
	}

	jobs, err := s.jobs.GetRecentJobs(instanceID, accountFilter, RUNNING_JOBS_LIMIT)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	return s.enrichJobs(instanceID, jobs)
}

func (s *Service) enrichJobs(instanceID string, jobs []outreachTypes.Job) ([]JobWithMeta, error) {
	accountIDSet := make(map[primitive.ObjectID]bool)
	userIDSet := make(map[string]bool)
	for _, job := range jobs {
		accountIDSet[job.AccountID] = true
		if job.CreatedBy != "" {
			userIDSet[job.CreatedBy] = true
		}
	}

	accountIDs := make([]primitive.ObjectID, 0, len(accountIDSet))
	for id := range accountIDSet {
		accountIDs = append(accountIDs, id)
	}
	accounts := map[primitive.ObjectID]outreachTypes.Account{}
	if len(accountIDs) > 0 {
		accountList, err := s.accounts.GetAccountsByIDs(instanceID, accountIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load accounts: %w", err)
		}
		for _, a := range accountList {
			accounts[a.ID] = a
		}
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	displayNames := map[string]string{}
	if len(userIDs) > 0 {
		names, err := s.users.GetDisplayNames(instanceID, userIDs)
		if err != nil {
			// Display names are decoration, an unavailable user store should
			// not hide the job list.
			slog.Warn("could not resolve creator display names", slog.String("error", err.Error()))
		} else {
			displayNames = names
		}
	}

	result := make([]JobWithMeta, 0, len(jobs))
	for _, job := range jobs {
		entry := JobWithMeta{Job: job}
		if account, ok := accounts[job.AccountID]; ok {
			entry.AccountName = account.Name
			entry.AccountAvatar = account.Avatar
		}
		entry.CreatedByName = displayNames[job.CreatedBy]
		result = append(result, entry)
	}
	return result, nil
}
