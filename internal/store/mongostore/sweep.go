package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"task-planner/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sweepOps is the storage the dangling-reference sweep runs against.
type sweepOps interface {
	scanTasks(ctx context.Context) ([]taskDoc, error)
	// owners maps document id to owner id. A nil ids reads the whole
	// collection.
	owners(ctx context.Context, collection string, ids []string) (map[string]string, error)
	projectExists(ctx context.Context, ownerID, projectID string) (bool, error)
	deleteProjectTasks(ctx context.Context, ownerID, projectID string, taskIDs []string) (int64, error)
	pullTags(ctx context.Context, ownerID, taskID string, tagIDs []string) (bool, error)
}

// SweepDanglingReferences deletes tasks whose project is gone for the same
// owner and strips tag ids that no longer resolve to one of the owner's tags.
// Mongo has no foreign keys, so only the sweep enforces these references.
func (s *Store) SweepDanglingReferences(ctx context.Context) (store.SweepReport, error) {
	return sweep(ctx, mongoSweep{s}, s.log)
}

// sweep reads tasks before their projects and tags. A referent created
// while the sweep runs is then always in the snapshot, and every removal is
// re-checked and conditioned on the reference it removes.
func sweep(ctx context.Context, ops sweepOps, log *slog.Logger) (store.SweepReport, error) {
	var report store.SweepReport

	tasks, err := ops.scanTasks(ctx)
	if err != nil {
		return report, err
	}
	projectOwners, err := ops.owners(ctx, projectsCollection, nil)
	if err != nil {
		return report, err
	}
	tagOwners, err := ops.owners(ctx, tagsCollection, nil)
	if err != nil {
		return report, err
	}

	plan := planSweep(tasks, projectOwners, tagOwners)

	for _, ref := range plan.projectRefs() {
		exists, err := ops.projectExists(ctx, ref.ownerID, ref.projectID)
		if err != nil {
			return report, err
		}
		if exists {
			continue
		}
		n, err := ops.deleteProjectTasks(ctx, ref.ownerID, ref.projectID, plan.orphans[ref])
		if err != nil {
			return report, fmt.Errorf("sweep orphan tasks: %w", err)
		}
		report.OrphanTasks += n
	}

	if len(plan.retag) > 0 {
		live, err := ops.owners(ctx, tagsCollection, plan.danglingTagIDs())
		if err != nil {
			return report, err
		}
		for _, taskID := range plan.retagTaskIDs() {
			r := plan.retag[taskID]
			var gone []string
			for _, tagID := range r.tagIDs {
				if live[tagID] != r.ownerID {
					gone = append(gone, tagID)
				}
			}
			if len(gone) == 0 {
				continue
			}
			modified, err := ops.pullTags(ctx, r.ownerID, taskID, gone)
			if err != nil {
				return report, fmt.Errorf("sweep task tags: %w", err)
			}
			if modified {
				report.OrphanTaskTags += int64(len(gone))
			}
		}
	}

	if report.OrphanTasks > 0 || report.OrphanTaskTags > 0 {
		log.Info("swept dangling references",
			"orphan_tasks", report.OrphanTasks,
			"orphan_task_tags", report.OrphanTaskTags)
	}
	return report, nil
}

type projectRef struct {
	ownerID   string
	projectID string
}

type danglingTags struct {
	ownerID string
	tagIDs  []string
}

type sweepPlan struct {
	orphans map[projectRef][]string
	retag   map[string]danglingTags
}

func planSweep(tasks []taskDoc, projectOwners, tagOwners map[string]string) sweepPlan {
	plan := sweepPlan{
		orphans: make(map[projectRef][]string),
		retag:   make(map[string]danglingTags),
	}

	for _, t := range tasks {
		if t.ProjectID != nil && projectOwners[*t.ProjectID] != t.UserID {
			ref := projectRef{ownerID: t.UserID, projectID: *t.ProjectID}
			plan.orphans[ref] = append(plan.orphans[ref], t.ID)
			continue
		}

		var gone []string
		for _, tagID := range t.TagIDs {
			if tagOwners[tagID] != t.UserID {
				gone = append(gone, tagID)
			}
		}
		if len(gone) > 0 {
			plan.retag[t.ID] = danglingTags{ownerID: t.UserID, tagIDs: gone}
		}
	}
	return plan
}

func (p sweepPlan) projectRefs() []projectRef {
	refs := make([]projectRef, 0, len(p.orphans))
	for ref := range p.orphans {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ownerID != refs[j].ownerID {
			return refs[i].ownerID < refs[j].ownerID
		}
		return refs[i].projectID < refs[j].projectID
	})
	return refs
}

func (p sweepPlan) retagTaskIDs() []string {
	ids := make([]string, 0, len(p.retag))
	for id := range p.retag {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p sweepPlan) danglingTagIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range p.retag {
		for _, id := range r.tagIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

type mongoSweep struct {
	s *Store
}

func (m mongoSweep) scanTasks(ctx context.Context) ([]taskDoc, error) {
	cur, err := m.s.tasks().Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{
		"_id": 1, "user_id": 1, "project_id": 1, "tag_ids": 1,
	}))
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return docs, nil
}

func (m mongoSweep) owners(ctx context.Context, collection string, ids []string) (map[string]string, error) {
	filter := bson.M{}
	if ids != nil {
		filter = bson.M{"_id": bson.M{"$in": ids}}
	}
	return ownerIndex(ctx, m.s.db.Collection(collection), filter)
}

func (m mongoSweep) projectExists(ctx context.Context, ownerID, projectID string) (bool, error) {
	n, err := m.s.projects().CountDocuments(ctx, bson.M{"_id": projectID, "user_id": ownerID})
	if err != nil {
		return false, fmt.Errorf("check project %s: %w", projectID, err)
	}
	return n > 0, nil
}

// deleteProjectTasks only matches tasks still pointing at projectID, so a
// task moved since the scan survives.
func (m mongoSweep) deleteProjectTasks(ctx context.Context, ownerID, projectID string, taskIDs []string) (int64, error) {
	res, err := m.s.tasks().DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": taskIDs},
		"user_id":    ownerID,
		"project_id": projectID,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m mongoSweep) pullTags(ctx context.Context, ownerID, taskID string, tagIDs []string) (bool, error) {
	res, err := m.s.tasks().UpdateOne(ctx,
		bson.M{"_id": taskID, "user_id": ownerID},
		bson.M{"$pull": bson.M{"tag_ids": bson.M{"$in": tagIDs}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ownerIndex maps document id to owner id for the documents matching filter.
func ownerIndex(ctx context.Context, coll *mongo.Collection, filter bson.M) (map[string]string, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1, "user_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", coll.Name(), err)
	}

	var rows []struct {
		ID     string `bson:"_id"`
		UserID string `bson:"user_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}

	index := make(map[string]string, len(rows))
	for _, r := range rows {
		index[r.ID] = r.UserID
	}
	return index, nil
}
