// Package mongostore implements store.Store on MongoDB. Tasks embed their
// tag ids, so tag removal is a single $pull.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	tasksCollection    = "tasks"
	tagsCollection     = "tags"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Connect dials uri and returns a store that owns the client.
func Connect(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(database), log)
	s.client = client
	return s, nil
}

func New(db *mongo.Database, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// EnsureIndexes creates the indexes every owner-scoped query relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "completed", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tag_ids", Value: 1}}},
			{Keys: bson.D{{Key: "due_date", Value: 1}}},
		},
		tagsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// WithinTx runs fn sequentially against the store itself. Standalone mongod
// servers reject multi-document transactions, so a failure part way through a
// cascade is left for SweepDanglingReferences.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) users() *mongo.Collection    { return s.db.Collection(usersCollection) }
func (s *Store) projects() *mongo.Collection { return s.db.Collection(projectsCollection) }
func (s *Store) tasks() *mongo.Collection    { return s.db.Collection(tasksCollection) }
func (s *Store) tags() *mongo.Collection     { return s.db.Collection(tagsCollection) }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

func owned(ownerID, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "user_id": ownerID.String()}
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := s.users().InsertOne(ctx, newUserDoc(user)); err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return models.User{}, translate(err)
	}
	return doc.model()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return models.User{}, translate(err)
	}
	return doc.model()
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if _, err := s.projects().InsertOne(ctx, newProjectDoc(project)); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error) {
	var doc projectDoc
	if err := s.projects().FindOne(ctx, owned(ownerID, id)).Decode(&doc); err != nil {
		return models.Project{}, translate(err)
	}
	project, err := doc.model()
	if err != nil {
		return models.Project{}, err
	}

	projects := []models.Project{project}
	if err := s.attachTaskIDs(ctx, ownerID, projects); err != nil {
		return models.Project{}, err
	}
	return projects[0], nil
}

func (s *Store) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.projects().Find(ctx, bson.M{"user_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	projects := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		p, err := d.model()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	if err := s.attachTaskIDs(ctx, ownerID, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Store) attachTaskIDs(ctx context.Context, ownerID uuid.UUID, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID.String()
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "project_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.tasks().Find(ctx, bson.M{
		"user_id":    ownerID.String(),
		"project_id": bson.M{"$in": ids},
	}, opts)
	if err != nil {
		return fmt.Errorf("load project members: %w", err)
	}

	var members []struct {
		ID        string `bson:"_id"`
		ProjectID string `bson:"project_id"`
	}
	if err := cur.All(ctx, &members); err != nil {
		return fmt.Errorf("decode project members: %w", err)
	}

	byProject := make(map[string][]uuid.UUID, len(projects))
	for _, m := range members {
		id, err := uuid.FromString(m.ID)
		if err != nil {
			return fmt.Errorf("decode task id: %w", err)
		}
		byProject[m.ProjectID] = append(byProject[m.ProjectID], id)
	}
	for i := range projects {
		if members := byProject[projects[i].ID.String()]; members != nil {
			projects[i].TaskIDs = members
		}
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	res, err := s.projects().UpdateOne(ctx, owned(project.UserID, project.ID), bson.M{"$set": bson.M{
		"name":        project.Name,
		"description": project.Description,
		"color":       project.Color,
		"updated_at":  project.UpdatedAt.UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := s.projects().DeleteOne(ctx, owned(ownerID, id))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if _, err := s.tasks().InsertOne(ctx, newTaskDoc(task)); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	var doc taskDoc
	if err := s.tasks().FindOne(ctx, owned(ownerID, id)).Decode(&doc); err != nil {
		return models.Task{}, translate(err)
	}
	return doc.model()
}

func taskFilter(ownerID uuid.UUID, query store.TaskQuery) bson.M {
	filter := bson.M{"user_id": ownerID.String()}
	if query.ProjectID != nil {
		filter["project_id"] = query.ProjectID.String()
	}
	if query.Completed != nil {
		filter["completed"] = *query.Completed
	}
	if query.Priority != nil {
		filter["priority_level"] = string(*query.Priority)
	}
	due := bson.M{}
	if query.DueFrom != nil {
		due["$gte"] = query.DueFrom.UTC()
	}
	if query.DueBefore != nil {
		due["$lt"] = query.DueBefore.UTC()
	}
	if len(due) > 0 {
		filter["due_date"] = due
	}
	return filter
}

func (s *Store) ListTasks(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "due_date", Value: 1},
		{Key: "created_at", Value: 1},
	})
	return s.findTasks(ctx, taskFilter(ownerID, query), opts)
}

func (s *Store) ListDueTasks(ctx context.Context, from, before time.Time) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "user_id", Value: 1},
		{Key: "due_date", Value: 1},
	})
	return s.findTasks(ctx, bson.M{
		"completed": false,
		"due_date":  bson.M{"$gte": from.UTC(), "$lt": before.UTC()},
	}, opts)
}

func (s *Store) findTasks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cur, err := s.tasks().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		t, err := d.model()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	doc := newTaskDoc(task)
	res, err := s.tasks().UpdateOne(ctx, owned(task.UserID, task.ID), bson.M{"$set": bson.M{
		"title":          doc.Title,
		"description":    doc.Description,
		"completed":      doc.Completed,
		"priority_level": doc.PriorityLevel,
		"due_date":       doc.DueDate,
		"project_id":     doc.ProjectID,
		"tag_ids":        doc.TagIDs,
		"updated_at":     doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := s.tasks().DeleteOne(ctx, owned(ownerID, id))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTasksByProject(ctx context.Context, ownerID, projectID uuid.UUID) (int64, error) {
	res, err := s.tasks().DeleteMany(ctx, bson.M{
		"user_id":    ownerID.String(),
		"project_id": projectID.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}
	return res.DeletedCount, nil
}

// Tags

func (s *Store) CreateTag(ctx context.Context, tag *models.Tag) error {
	if _, err := s.tags().InsertOne(ctx, newTagDoc(tag)); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *Store) GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error) {
	var doc tagDoc
	if err := s.tags().FindOne(ctx, owned(ownerID, id)).Decode(&doc); err != nil {
		return models.Tag{}, translate(err)
	}
	return doc.model()
}

func (s *Store) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "name", Value: 1},
		{Key: "created_at", Value: 1},
	})
	cur, err := s.tags().Find(ctx, bson.M{"user_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	var docs []tagDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(docs))
	for _, d := range docs {
		t, err := d.model()
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (s *Store) CountTags(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := s.tags().CountDocuments(ctx, bson.M{
		"user_id": ownerID.String(),
		"_id":     bson.M{"$in": idStrings(ids)},
	})
	if err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return count, nil
}

func (s *Store) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.tags().UpdateOne(ctx, owned(tag.UserID, tag.ID), bson.M{"$set": bson.M{
		"name":       tag.Name,
		"color":      tag.Color,
		"updated_at": tag.UpdatedAt.UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := s.tags().DeleteOne(ctx, owned(ownerID, id))
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveTagFromTasks(ctx context.Context, ownerID, tagID uuid.UUID) (int64, error) {
	res, err := s.tasks().UpdateMany(ctx,
		bson.M{"user_id": ownerID.String(), "tag_ids": tagID.String()},
		bson.M{"$pull": bson.M{"tag_ids": tagID.String()}},
	)
	if err != nil {
		return 0, fmt.Errorf("remove tag from tasks: %w", err)
	}
	return res.ModifiedCount, nil
}
