package handlers_test

import (
	"context"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/services"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPlanner struct {
	mock.Mock
}

var _ services.Planner = (*MockPlanner)(nil)

func (m *MockPlanner) CreateTask(ctx context.Context, ownerID uuid.UUID, in models.TaskInput) (models.Task, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockPlanner) GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockPlanner) ListTasks(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, ownerID, filter)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func (m *MockPlanner) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockPlanner) CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockPlanner) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockPlanner) CreateProject(ctx context.Context, ownerID uuid.UUID, in models.ProjectInput) (models.Project, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *MockPlanner) GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *MockPlanner) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, ownerID)
	projects, _ := args.Get(0).([]models.Project)
	return projects, args.Error(1)
}

func (m *MockPlanner) UpdateProject(ctx context.Context, ownerID, id uuid.UUID, patch models.ProjectPatch) (models.Project, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *MockPlanner) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockPlanner) CreateTag(ctx context.Context, ownerID uuid.UUID, in models.TagInput) (models.Tag, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(models.Tag), args.Error(1)
}

func (m *MockPlanner) GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(models.Tag), args.Error(1)
}

func (m *MockPlanner) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	args := m.Called(ctx, ownerID)
	tags, _ := args.Get(0).([]models.Tag)
	return tags, args.Error(1)
}

func (m *MockPlanner) UpdateTag(ctx context.Context, ownerID, id uuid.UUID, patch models.TagPatch) (models.Tag, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(models.Tag), args.Error(1)
}

func (m *MockPlanner) DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockPlanner) TaskSummary(ctx context.Context, ownerID uuid.UUID) (models.TaskSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(models.TaskSummary), args.Error(1)
}

func (m *MockPlanner) ProjectSummary(ctx context.Context, ownerID uuid.UUID) ([]models.ProjectSummary, error) {
	args := m.Called(ctx, ownerID)
	summary, _ := args.Get(0).([]models.ProjectSummary)
	return summary, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

var _ services.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockAuthService) GenerateTokens(ctx context.Context, userID uuid.UUID) (services.TokenPair, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(services.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (services.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(services.TokenPair), args.Error(1)
}

func (m *MockAuthService) Revoke(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) ParseAccessToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthService) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}
