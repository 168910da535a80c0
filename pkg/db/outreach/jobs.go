package outreach

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

func (dbService *OutreachDBService) CreateJob(instanceID string, job outreachTypes.Job) (outreachTypes.Job, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	job.ID = primitive.NewObjectID()
	res, err := dbService.collectionOutreachJobs(instanceID).InsertOne(ctx, job)
	if err != nil {
		return job, err
	}
	job.ID = res.InsertedID.(primitive.ObjectID)
	return job, nil
}

// FindInFlightJob returns the job for the account and action type that still
// has unresolved tasks, nil when there is none.
func (dbService *OutreachDBService) FindInFlightJob(instanceID string, accountID primitive.ObjectID, actionType string) (*outreachTypes.Job, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"accountId":  accountID,
		"actionType": actionType,
		"$expr": bson.M{
			"$lt": bson.A{
				bson.M{"$add": bson.A{"$statistics.completed", "$statistics.failed"}},
				"$statistics.total",
			},
		},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var job outreachTypes.Job
	err := dbService.collectionOutreachJobs(instanceID).FindOne(ctx, filter, opts).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// AppendTasks pushes the tasks onto the job, grows the total counter by the
// appended count and moves the estimated completion time.
func (dbService *OutreachDBService) AppendTasks(instanceID string, jobID primitive.ObjectID, tasks []outreachTypes.Task, estimatedCompletion time.Time) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	update := bson.M{
		"$push": bson.M{"tasks": bson.M{"$each": tasks}},
		"$inc":  bson.M{"statistics.total": len(tasks)},
		"$set":  bson.M{"estimatedCompletionTime": estimatedCompletion},
	}
	res, err := dbService.collectionOutreachJobs(instanceID).UpdateOne(ctx, bson.M{"_id": jobID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return fmt.Errorf("job %s not found", jobID.Hex())
	}
	return nil
}

func (dbService *OutreachDBService) GetJobByID(instanceID string, jobID primitive.ObjectID) (*outreachTypes.Job, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var job outreachTypes.Job
	err := dbService.collectionOutreachJobs(instanceID).FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetRecentJobs returns the most recently created jobs, newest first with the
// id as tiebreak. A nil accountIDs filter means all accounts.
func (dbService *OutreachDBService) GetRecentJobs(instanceID string, accountIDs []primitive.ObjectID, limit int) ([]outreachTypes.Job, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{}
	if accountIDs != nil {
		filter["accountId"] = bson.M{"$in": accountIDs}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := dbService.collectionOutreachJobs(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	jobs := []outreachTypes.Job{}
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (dbService *OutreachDBService) DeleteJob(instanceID string, jobID primitive.ObjectID) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionOutreachJobs(instanceID).DeleteOne(ctx, bson.M{"_id": jobID})
	return err
}

// SaveTaskResult is the executor's write-back: marks the task at the given
// index as completed, links the result record and increments the matching
// statistics counter. A missing job is a no-op, cancellation may race with
// the executor.
func (dbService *OutreachDBService) SaveTaskResult(instanceID string, jobID primitive.ObjectID, taskIndex int, succeeded bool, resultRef *primitive.ObjectID) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	counter := "statistics.completed"
	if !succeeded {
		counter = "statistics.failed"
	}

	set := bson.M{
		fmt.Sprintf("tasks.%d.completed", taskIndex): true,
	}
	if resultRef != nil {
		set[fmt.Sprintf("tasks.%d.resultRef", taskIndex)] = resultRef
	}

	_, err := dbService.collectionOutreachJobs(instanceID).UpdateOne(
		ctx,
		bson.M{"_id": jobID, fmt.Sprintf("tasks.%d.completed", taskIndex): false},
		bson.M{
			"$set": set,
			"$inc": bson.M{counter: 1},
		},
	)
	return err
}

// GetFinishedJobsBefore returns jobs created before the reference time whose
// tasks have all been resolved. In-flight jobs are never returned no matter
// how old they are. Only the fields needed for cleanup are fetched.
func (dbService *OutreachDBService) GetFinishedJobsBefore(instanceID string, before time.Time, limit int) ([]outreachTypes.Job, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"createdAt": bson.M{"$lt": before},
		"$expr": bson.M{
			"$gte": bson.A{
				bson.M{"$add": bson.A{"$statistics.completed", "$statistics.failed"}},
				"$statistics.total",
			},
		},
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "accountId": 1, "actionType": 1, "createdAt": 1}).
		SetLimit(int64(limit))

	cursor, err := dbService.collectionOutreachJobs(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	jobs := []outreachTypes.Job{}
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
