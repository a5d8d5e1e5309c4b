package handlers_test

import (
	"net/http"
	"testing"

	"task-planner/backend/internal/handlers"
	"task-planner/backend/internal/models"
	"task-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPlannerRouter(owner uuid.UUID) (*gin.Engine, *MockPlanner) {
	gin.SetMode(gin.TestMode)
	planner := &MockPlanner{}
	projects := handlers.NewProjectHandler(planner)
	tags := handlers.NewTagHandler(planner)
	analytics := handlers.NewAnalyticsHandler(planner)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", owner)
		c.Next()
	})
	router.GET("/projects", projects.GetProjects)
	router.POST("/projects", projects.CreateProject)
	router.GET("/projects/:id", projects.GetProjectByID)
	router.PUT("/projects/:id", projects.UpdateProject)
	router.DELETE("/projects/:id", projects.DeleteProject)
	router.GET("/tags", tags.GetTags)
	router.POST("/tags", tags.CreateTag)
	router.GET("/tags/:id", tags.GetTagByID)
	router.PUT("/tags/:id", tags.UpdateTag)
	router.DELETE("/tags/:id", tags.DeleteTag)
	router.GET("/analytics/tasks", analytics.TaskSummary)
	router.GET("/analytics/projects", analytics.ProjectSummary)
	return router, planner
}

func TestCreateProject(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router, planner := setupPlannerRouter(owner)

	planner.On("CreateProject", mock.Anything, owner, models.ProjectInput{Name: "Home", Color: "#00ff00"}).
		Return(models.Project{ID: uuid.Must(uuid.NewV4()), Name: "Home", Color: "#00ff00", TaskIDs: []uuid.UUID{}}, nil)

	w := doRequest(router, http.MethodPost, "/projects", `{"name":"Home","color":"#00ff00"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []interface{}{}, decodeBody(t, w)["taskIds"])
	planner.AssertExpectations(t)
}

func TestCreateProject_BadColor(t *testing.T) {
	router, planner := setupPlannerRouter(uuid.Must(uuid.NewV4()))

	w := doRequest(router, http.MethodPost, "/projects", `{"name":"Home","color":"green"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	planner.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProject_PartialPatch(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router, planner := setupPlannerRouter(owner)
	id := uuid.Must(uuid.NewV4())

	planner.On("UpdateProject", mock.Anything, owner, id, mock.MatchedBy(func(p models.ProjectPatch) bool {
		return p.Name == nil && p.Color == nil && p.Description != nil && *p.Description == ""
	})).Return(models.Project{ID: id}, nil)

	w := doRequest(router, http.MethodPut, "/projects/"+id.String(), `{"description":""}`)

	assert.Equal(t, http.StatusOK, w.Code)
	planner.AssertExpectations(t)
}

func TestDeleteProject(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router, planner := setupPlannerRouter(owner)
	id := uuid.Must(uuid.NewV4())
	foreign := uuid.Must(uuid.NewV4())

	planner.On("DeleteProject", mock.Anything, owner, id).Return(nil)
	planner.On("DeleteProject", mock.Anything, owner, foreign).Return(services.ErrNotFound)

	assert.Equal(t, http.StatusNoContent, doRequest(router, http.MethodDelete, "/projects/"+id.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodDelete, "/projects/"+foreign.String(), "").Code)
}

func TestTags(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router, planner := setupPlannerRouter(owner)
	id := uuid.Must(uuid.NewV4())

	planner.On("ListTags", mock.Anything, owner).Return([]models.Tag{{ID: id, Name: "work"}}, nil)
	planner.On("CreateTag", mock.Anything, owner, models.TagInput{Name: "work"}).Return(models.Tag{ID: id, Name: "work"}, nil)
	planner.On("UpdateTag", mock.Anything, owner, id, models.TagPatch{Color: strPtr("#abc")}).Return(models.Tag{ID: id}, nil)
	planner.On("DeleteTag", mock.Anything, owner, id).Return(nil)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/tags", "").Code)
	assert.Equal(t, http.StatusCreated, doRequest(router, http.MethodPost, "/tags", `{"name":"work"}`).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPut, "/tags/"+id.String(), `{"color":"#abc"}`).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(router, http.MethodDelete, "/tags/"+id.String(), "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPut, "/tags/"+id.String(), `{"label":"x"}`).Code)
	planner.AssertExpectations(t)
}

func TestAnalytics(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router, planner := setupPlannerRouter(owner)

	planner.On("TaskSummary", mock.Anything, owner).Return(models.TaskSummary{
		TotalTasks:     2,
		CompletedTasks: 1,
		CompletionRate: 50,
		PerPriority: map[models.Priority]models.PriorityStats{
			models.PriorityLow:    {},
			models.PriorityMedium: {Total: 2, Completed: 1},
			models.PriorityHigh:   {},
		},
	}, nil)
	planner.On("ProjectSummary", mock.Anything, owner).Return(nil, nil)

	w := doRequest(router, http.MethodGet, "/analytics/tasks", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["totalTasks"])
	assert.Equal(t, float64(50), body["completionRate"])
	assert.Contains(t, body["priorityStats"], "medium")

	w = doRequest(router, http.MethodGet, "/analytics/projects", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func strPtr(s string) *string {
	return &s
}
