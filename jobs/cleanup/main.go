package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/outreach"
	"github.com/assistant-support/web-sale-sub000/pkg/utils"
)

const (
	DEFAULT_JOB_RETENTION_DAYS = 30

	CLEANUP_BATCH_SIZE = 100

	MAX_FAILED_ATTEMPTS_BEFORE_STOP = 20
)

func main() {
	slog.Info("Starting cleanup job")
	start := time.Now()

	removedTotal := 0
	for _, instanceID := range conf.InstanceIDs {
		removedTotal += cleanupFinishedJobs(instanceID)
	}

	if removedTotal > 0 {
		cacheClient.InvalidateTags(outreach.CACHE_TAG_RUNNING_SCHEDULES, outreach.CACHE_TAG_COMBINED_CUSTOMER_DATA)
	}

	slog.Info("Cleanup job completed", slog.Int("removed", removedTotal), slog.String("duration", time.Since(start).String()))
}

func cleanupFinishedJobs(instanceID string) int {
	retentionDays := retentionDaysForInstance(instanceID)
	before := time.Now().AddDate(0, 0, -retentionDays)

	slog.Debug("Start removing finished jobs for instance", slog.String("instanceID", instanceID), slog.Int("retentionDays", retentionDays))

	removed := 0
	failed := 0
	for {
		if failed > MAX_FAILED_ATTEMPTS_BEFORE_STOP {
			slog.Error("Too many failed attempts, stopping cleanup for instance", slog.String("instanceID", instanceID))
			break
		}

		jobs, err := outreachDBService.GetFinishedJobsBefore(instanceID, before, CLEANUP_BATCH_SIZE)
		if err != nil {
			slog.Error("Failed to get finished jobs", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
			break
		}

		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			err := outreachDBService.DeleteJob(instanceID, job.ID)
			if err != nil {
				failed++
				slog.Error("Failed to delete finished job", slog.String("instanceID", instanceID), slog.String("jobID", job.ID.Hex()), slog.String("error", err.Error()))
				continue
			}

			err = outreachDBService.RemoveJobRef(instanceID, job.AccountID, job.ID)
			if err != nil {
				slog.Error("Failed to remove job ref from account", slog.String("instanceID", instanceID), slog.String("jobID", job.ID.Hex()), slog.String("error", err.Error()))
			}
			removed++
		}

		if len(jobs) < CLEANUP_BATCH_SIZE {
			break
		}
	}

	slog.Info("Finished removing finished jobs for instance", slog.String("instanceID", instanceID), slog.Int("removed", removed))
	return removed
}

func retentionDaysForInstance(instanceID string) int {
	override := os.Getenv(utils.GenerateJobRetentionEnvVarName(instanceID))
	if override == "" {
		return conf.JobRetentionDays
	}

	days, err := strconv.Atoi(override)
	if err != nil || days < 1 {
		slog.Warn("Ignoring invalid job retention override", slog.String("instanceID", instanceID), slog.String("value", override))
		return conf.JobRetentionDays
	}
	return days
}
