package apihandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	cachesignal "github.com/assistant-support/web-sale-sub000/pkg/cache-signal"
	muDB "github.com/assistant-support/web-sale-sub000/pkg/db/management-user"
	outreachDB "github.com/assistant-support/web-sale-sub000/pkg/db/outreach"
	"github.com/assistant-support/web-sale-sub000/pkg/outreach"
	"github.com/gin-gonic/gin"
)

func HealthCheckHandle(c *gin.Context) {
	serviceInfos := make(map[string]interface{})
	infos, err := os.ReadFile("serviceInfos.json")
	if err != nil {
		slog.Debug("Error reading serviceInfos.json", slog.String("error", err.Error()))
	} else {
		err = json.Unmarshal(infos, &serviceInfos)
		if err != nil {
			slog.Debug("Error unmarshalling serviceInfos.json", slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"serviceInfos": serviceInfos,
	})
}

type HttpEndpoints struct {
	outreachService    *outreach.Service
	outreachDBConn     *outreachDB.OutreachDBService
	muDBConn           *muDB.ManagementUserDBService
	cacheClient        *cachesignal.Client
	tokenSignKey       string
	allowedInstanceIDs []string
	taskResultAPIKeys  []string
}

func NewHTTPHandler(
	tokenSignKey string,
	outreachService *outreach.Service,
	outreachDBConn *outreachDB.OutreachDBService,
	muDBConn *muDB.ManagementUserDBService,
	cacheClient *cachesignal.Client,
	allowedInstanceIDs []string,
	taskResultAPIKeys []string,
) *HttpEndpoints {
	return &HttpEndpoints{
		tokenSignKey:       tokenSignKey,
		outreachService:    outreachService,
		outreachDBConn:     outreachDBConn,
		muDBConn:           muDBConn,
		cacheClient:        cacheClient,
		allowedInstanceIDs: allowedInstanceIDs,
		taskResultAPIKeys:  taskResultAPIKeys,
	}
}
