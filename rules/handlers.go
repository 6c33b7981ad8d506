package rules

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func resolveUserID(c *gin.Context) (int, error) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		return 0, errors.New("no user in context")
	}
	return userId, nil
}

func bindRuleInput(c *gin.Context) (*models.NewCommissionRule, bool) {
	var input models.NewCommissionRule
	if err := c.ShouldBindJSON(&input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return nil, false
	}
	return &input, true
}

func ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		rules, err := models.GetCommissionRules(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": rules})
	}
}

func CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		input, ok := bindRuleInput(c)
		if !ok {
			return
		}
		rule, err := models.CreateCommissionRule(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rule": rule})
	}
}

func UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
			return
		}
		input, ok := bindRuleInput(c)
		if !ok {
			return
		}
		rule, err := models.UpdateCommissionRule(c.Request.Context(), id, input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rule": rule})
	}
}

func DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
			return
		}
		if _, err := models.DeleteCommissionRule(c.Request.Context(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// projectRow pairs one mirrored project with the caller's assignment for
// it, if any.
type projectRow struct {
	*models.BillingProject
	Assignment *models.ProjectRuleAssignment `json:"assignment,omitempty"`
}

func ListProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := c.Request.Context()

		projects, err := models.GetBillingProjects(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		assignments, err := models.GetRuleAssignments(ctx, userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		byProject := make(map[string]*models.ProjectRuleAssignment, len(assignments))
		for _, assignment := range assignments {
			byProject[assignment.ProjectHarvestId] = assignment
		}

		rows := make([]projectRow, 0, len(projects))
		for _, project := range projects {
			rows = append(rows, projectRow{
				BillingProject: project,
				Assignment:     byProject[project.HarvestId],
			})
		}
		c.JSON(http.StatusOK, gin.H{"projects": rows})
	}
}

type assignRequest struct {
	ProjectHarvestId string `json:"projectHarvestId" binding:"required"`
	CommissionRuleId int    `json:"commissionRuleId" binding:"required"`
}

// AssignHandler repoints one project to another of the caller's rules.
func AssignHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := resolveUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "projectHarvestId and commissionRuleId are required"})
			return
		}
		ctx := c.Request.Context()

		// The rule must exist and belong to the caller.
		if err := utils.ValidateResourceId[models.CommissionRule](ctx, userId, req.CommissionRuleId); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rule not found"})
			return
		}
		project, err := models.FindBillingProjectByHarvestId(ctx, req.ProjectHarvestId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if project == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project not found"})
			return
		}

		assignment, err := models.UpsertRuleAssignment(ctx, userId, req.ProjectHarvestId, req.CommissionRuleId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignment": assignment})
	}
}
