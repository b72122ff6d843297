package models

import (
	"context"
	"database/sql"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// Project represents a project of team.
type Project struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// TeamID contains ID of team.
	TeamID int64 `db:"team_id"`
	// Title contains project title.
	Title string `db:"title"`
	// Description contains project description.
	Description NString `db:"description"`
	// RepoURL contains URL of project repository.
	RepoURL NString `db:"repo_url"`
	// DemoURL contains URL of project demo.
	DemoURL NString `db:"demo_url"`
	// CreateTime contains time when project was created.
	CreateTime int64 `db:"create_time"`
	// SubmitTime contains time when project was submitted.
	//
	// Zero value means that project is still a draft.
	SubmitTime NInt64 `db:"submit_time"`
}

// Clone creates copy of project.
func (o Project) Clone() Project {
	return o
}

// Submitted reports that project was submitted.
func (o Project) Submitted() bool {
	return o.SubmitTime != 0
}

// ProjectEvent represents a project event.
type ProjectEvent struct {
	baseEvent
	Project
}

// Object returns event project.
func (e ProjectEvent) Object() Project {
	return e.Project
}

// SetObject sets event project.
func (e *ProjectEvent) SetObject(o Project) {
	e.Project = o
}

// ProjectStore represents store for projects.
type ProjectStore struct {
	cachedStore[Project, ProjectEvent, *Project, *ProjectEvent]
	byHackathon *btreeIndex[int64, Project, *Project]
	byTeam      *btreeIndex[int64, Project, *Project]
}

// FindByHackathon returns projects by hackathon ID.
func (s *ProjectStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Project], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// GetByTeam returns project by team ID.
//
// Team can have at most one project, so sql.ErrNoRows will be
// returned if project is not created yet.
func (s *ProjectStore) GetByTeam(ctx context.Context, teamID int64) (Project, error) {
	s.mutex.RLock()
	projects := btreeIndexFind(
		s.byTeam,
		s.objects.Iter(),
		s.mutex.RLocker(),
		[]int64{teamID},
		0,
	)
	defer func() { _ = projects.Close() }()
	if !projects.Next() {
		if err := projects.Err(); err != nil {
			return Project{}, err
		}
		return Project{}, sql.ErrNoRows
	}
	return projects.Row(), nil
}

// NewProjectStore creates a new instance of ProjectStore.
func NewProjectStore(
	db *gosql.DB, table, eventTable string,
) *ProjectStore {
	impl := &ProjectStore{
		byHackathon: newBTreeIndex(func(o Project) (int64, bool) { return o.HackathonID, true }, lessInt64),
		byTeam:      newBTreeIndex(func(o Project) (int64, bool) { return o.TeamID, true }, lessInt64),
	}
	impl.cachedStore = makeCachedStore[Project, ProjectEvent](
		db, table, eventTable, impl, impl.byHackathon, impl.byTeam,
	)
	return impl
}
