package commissions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/gin-gonic/gin"
)

func resolveUserID(c *gin.Context) (int, error) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		return 0, errors.New("no user in context")
	}
	return userId, nil
}

// parseDateRange reads optional start_date/end_date query params. Both must
// be present to filter; one without the other is rejected.
func parseDateRange(c *gin.Context) (start time.Time, end time.Time, filter bool, err error) {
	startRaw := strings.TrimSpace(c.Query("start_date"))
	endRaw := strings.TrimSpace(c.Query("end_date"))
	if startRaw == "" && endRaw == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, false, errors.New("start_date and end_date must be given together")
	}
	start, err = time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err = time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.New("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false, errors.New("end_date is before start_date")
	}
	// Invoice timestamps carry a time of day; stretch the end bound to
	// cover the whole closing day.
	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, true, nil
}

func loadReport(ctx context.Context, c *gin.Context, userId int) (*Report, bool) {
	defaultRule, err := models.GetDefaultCommissionRule(ctx, userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if defaultRule == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no default commission rule found; connect a harvest account first"})
		return nil, false
	}

	start, end, filter, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	invoices, err := models.GetInvoices(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if filter {
		invoices = FilterByDateRange(invoices, start, end)
	}

	projects, err := models.GetBillingProjects(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	clients, err := models.GetBillingClients(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	assignments, err := models.GetRuleAssignments(ctx, userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	report := BuildReport(invoices, projects, clients, assignments, defaultRule)
	return &report, true
}

func ReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		report, ok := loadReport(c.Request.Context(), c, userId)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		report, ok := loadReport(c.Request.Context(), c, userId)
		if !ok {
			return
		}

		f, err := ExportExcel(*report)
		if err != nil {
			config.LogError(logger, "commissions", "ExportHandler", "build xlsx", userId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=commissions.xlsx")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(logger, "commissions", "ExportHandler", "write xlsx", userId, err)
		}
	}
}
