package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/assistant-support/web-sale-sub000/pkg/apihelpers/middlewares"
	jwthandling "github.com/assistant-support/web-sale-sub000/pkg/jwt-handling"
	"github.com/assistant-support/web-sale-sub000/pkg/outreach"
	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
	pc "github.com/assistant-support/web-sale-sub000/pkg/permission-checker"
	"github.com/assistant-support/web-sale-sub000/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *HttpEndpoints) AddOutreachAPI(rg *gin.RouterGroup) {
	outreachGroup := rg.Group("/outreach")

	// Task executor callback, authenticated by API key instead of JWT
	outreachGroup.POST("/task-results",
		mw.HasValidAPIKey(h.taskResultAPIKeys),
		mw.RequirePayload(),
		h.saveTaskResult,
	)

	jobsGroup := outreachGroup.Group("/jobs")
	jobsGroup.Use(mw.GetAndValidateManagementUserJWT(h.tokenSignKey))
	jobsGroup.Use(mw.IsInstanceIDInJWTAllowed(h.allowedInstanceIDs))
	{
		jobsGroup.POST("", mw.RequirePayload(), h.createOrExtendJob)
		jobsGroup.GET("/running", h.getRunningJobs)
		jobsGroup.DELETE("/:id", h.cancelJob)
	}

	// Account delegation management, admins only
	permissionsGroup := outreachGroup.Group("/permissions")
	permissionsGroup.Use(mw.GetAndValidateManagementUserJWT(h.tokenSignKey))
	permissionsGroup.Use(mw.IsInstanceIDInJWTAllowed(h.allowedInstanceIDs))
	permissionsGroup.Use(mw.IsAdminUser())
	{
		permissionsGroup.POST("", mw.RequirePayload(), h.createPermission)
		permissionsGroup.DELETE("/:id", h.deletePermission)
	}
}

type createJobRequest struct {
	AccountID       string                    `json:"accountId"`
	ActionType      string                    `json:"actionType"`
	Recipients      []outreachTypes.Recipient `json:"recipients"`
	ActionsPerHour  int                       `json:"actionsPerHour"`
	JobName         string                    `json:"jobName"`
	MessageTemplate string                    `json:"messageTemplate"`
	IsManualAction  bool                      `json:"isManualAction"`
}

func (h *HttpEndpoints) createOrExtendJob(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ManagementUserClaims)

	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("error parsing request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing request body"})
		return
	}

	accountID, err := primitive.ObjectIDFromHex(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if !h.hasManageJobsPermission(token, req.AccountID, req.ActionType) {
		slog.Warn("unauthorised access attempted", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("accountID", req.AccountID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorised access attempted"})
		return
	}

	slog.Info("creating outreach job", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("accountID", req.AccountID), slog.String("actionType", req.ActionType))

	result, err := h.outreachService.CreateOrExtendJob(token.InstanceID, outreach.CreateJobRequest{
		AccountID:       accountID,
		ActionType:      req.ActionType,
		Recipients:      req.Recipients,
		ActionsPerHour:  req.ActionsPerHour,
		JobName:         req.JobName,
		MessageTemplate: req.MessageTemplate,
		IsManualAction:  req.IsManualAction,
		CreatedBy:       token.Subject,
	})
	if err != nil {
		var validationErr outreach.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
			return
		}
		if errors.Is(err, outreach.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		slog.Error("error creating outreach job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating outreach job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":      result.Job,
		"added":    result.Added,
		"skipped":  result.Skipped,
		"extended": result.Extended,
		"message":  result.Message,
	})
}

func (h *HttpEndpoints) getRunningJobs(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ManagementUserClaims)

	jobs, err := h.outreachService.ListRunningJobs(token.InstanceID, outreach.Actor{
		ID:      token.Subject,
		IsAdmin: token.IsAdmin,
	})
	if err != nil {
		slog.Error("error getting running jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error getting running jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *HttpEndpoints) cancelJob(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ManagementUserClaims)

	jobID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.outreachDBConn.GetJobByID(token.InstanceID, jobID)
	if err != nil {
		slog.Error("error loading job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error cancelling job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	if !h.hasManageJobsPermission(token, job.AccountID.Hex(), job.ActionType) {
		slog.Warn("unauthorised access attempted", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("jobID", jobID.Hex()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorised access attempted"})
		return
	}

	slog.Info("cancelling outreach job", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("jobID", jobID.Hex()))

	err = h.outreachService.CancelJob(token.InstanceID, jobID)
	if err != nil {
		if errors.Is(err, outreach.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		slog.Error("error cancelling job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error cancelling job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job cancelled"})
}

func (h *HttpEndpoints) hasManageJobsPermission(token *jwthandling.ManagementUserClaims, accountKey string, actionType string) bool {
	var limiterReq map[string]string
	if actionType != "" {
		limiterReq = map[string]string{"actionType": actionType}
	}

	return pc.IsAuthorized(
		h.muDBConn,
		token.IsAdmin,
		token.InstanceID,
		token.Subject,
		pc.SUBJECT_TYPE_MANAGEMENT_USER,
		pc.RESOURCE_TYPE_OUTREACH_ACCOUNT,
		[]string{accountKey},
		pc.ACTION_MANAGE_JOBS,
		limiterReq,
	)
}

type taskResultRequest struct {
	InstanceID string `json:"instanceId"`
	JobID      string `json:"jobId"`
	TaskIndex  int    `json:"taskIndex"`
	Succeeded  bool   `json:"succeeded"`
	ResultRef  string `json:"resultRef"`
}

// saveTaskResult records the outcome reported by the task executor and
// refreshes the read caches so progress counters show up without delay.
func (h *HttpEndpoints) saveTaskResult(c *gin.Context) {
	var req taskResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("error parsing request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing request body"})
		return
	}

	if !h.isInstanceAllowed(req.InstanceID) {
		slog.Warn("instanceID not allowed", slog.String("instanceID", req.InstanceID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "instanceID not allowed"})
		return
	}

	jobID, err := primitive.ObjectIDFromHex(req.JobID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	if req.TaskIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task index"})
		return
	}

	var resultRef *primitive.ObjectID
	if req.ResultRef != "" {
		ref, err := primitive.ObjectIDFromHex(req.ResultRef)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ref"})
			return
		}
		resultRef = &ref
	}

	err = h.outreachDBConn.SaveTaskResult(req.InstanceID, jobID, req.TaskIndex, req.Succeeded, resultRef)
	if err != nil {
		slog.Error("error saving task result", slog.String("error", err.Error()), slog.String("jobID", req.JobID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving task result"})
		return
	}

	h.cacheClient.InvalidateTags(outreach.CACHE_TAG_RUNNING_SCHEDULES, outreach.CACHE_TAG_COMBINED_CUSTOMER_DATA)

	c.JSON(http.StatusOK, gin.H{"message": "task result saved"})
}

func (h *HttpEndpoints) isInstanceAllowed(instanceID string) bool {
	return utils.ContainsString(h.allowedInstanceIDs, instanceID)
}

type createPermissionRequest struct {
	SubjectID   string              `json:"subjectId"`
	ResourceKey string              `json:"resourceKey"`
	Limiter     []map[string]string `json:"limiter"`
}

func (h *HttpEndpoints) createPermission(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ManagementUserClaims)

	var req createPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("error parsing request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing request body"})
		return
	}
	if req.SubjectID == "" || req.ResourceKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId and resourceKey are required"})
		return
	}

	slog.Info("creating account delegation", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("subjectID", req.SubjectID), slog.String("resourceKey", req.ResourceKey))

	permission, err := h.muDBConn.CreatePermission(
		token.InstanceID,
		req.SubjectID,
		pc.SUBJECT_TYPE_MANAGEMENT_USER,
		pc.RESOURCE_TYPE_OUTREACH_ACCOUNT,
		req.ResourceKey,
		pc.ACTION_MANAGE_JOBS,
		req.Limiter,
	)
	if err != nil {
		slog.Error("error creating permission", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating permission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"permission": permission})
}

func (h *HttpEndpoints) deletePermission(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ManagementUserClaims)
	permissionID := c.Param("id")

	slog.Info("deleting account delegation", slog.String("instanceID", token.InstanceID), slog.String("userID", token.Subject), slog.String("permissionID", permissionID))

	err := h.muDBConn.DeletePermission(token.InstanceID, permissionID)
	if err != nil {
		slog.Error("error deleting permission", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error deleting permission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "permission deleted"})
}
