package harvestsync

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/gin-gonic/gin"
)

// maxSyncPerMinute caps manually triggered passes per user.
const maxSyncPerMinute = 6

func resolveUserID(c *gin.Context) (int, error) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		return 0, errors.New("no user in context")
	}
	return userId, nil
}

// ConnectHandler validates the submitted credentials against Harvest before
// anything is persisted, then stores them encrypted, guarantees the default
// commission rule exists, and runs the initial sync. A failed initial sync
// does not fail the request: the connection is already usable and the sync
// can be retried.
func ConnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "accountId and accessToken are required"})
			return
		}

		ctx := c.Request.Context()

		probe, err := newHarvestClient(req.AccountId, req.AccessToken)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := probe.Probe(ctx); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "harvest rejected the credentials: " + err.Error()})
			return
		}

		encrypted, err := utils.Encrypt(req.AccessToken)
		if err != nil {
			config.LogError(logger, "harvestsync", "ConnectHandler", "encrypt token", userId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store credentials"})
			return
		}

		if _, err := models.UpsertHarvestConnection(ctx, userId, req.AccountId, encrypted); err != nil {
			config.LogError(logger, "harvestsync", "ConnectHandler", "upsert connection", userId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := models.EnsureDefaultCommissionRule(ctx, userId); err != nil {
			config.LogError(logger, "harvestsync", "ConnectHandler", "ensure default rule", userId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		result := SyncForUser(ctx, userId)
		if !result.Success {
			config.LogError(logger, "harvestsync", "ConnectHandler", "initial sync", userId, errors.New(result.Error))
			c.JSON(http.StatusOK, gin.H{
				"success":   true,
				"warning":   "connected, but the initial sync failed; trigger a sync to retry",
				"syncError": result.Error,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": result.Stats})
	}
}

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := models.GetHarvestConnection(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if conn == nil {
			c.JSON(http.StatusOK, gin.H{"connection": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connection": ConnectionResponse{
			AccountId:  conn.AccountId,
			LastSyncAt: formatTime(conn.LastSyncAt),
			CreatedAt:  conn.CreatedAt.Format(time.RFC3339),
		}})
	}
}

// TriggerSyncHandler runs a reconciliation pass inline. A fixed-window
// counter in redis caps how often one user can trigger it.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := c.Request.Context()
		count, err := config.IncrRedisWindow(ctx, "SyncRate:"+strconv.Itoa(userId), time.Minute)
		if err == nil && count > maxSyncPerMinute {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "sync already triggered recently, try again shortly"})
			return
		}

		result := SyncForUser(ctx, userId)
		if !result.Success {
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Error})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": result.Stats})
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
