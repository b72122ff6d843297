package models

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// ProjectFile represents a file attached to project.
type ProjectFile struct {
	baseObject
	// ProjectID contains ID of project.
	ProjectID int64 `db:"project_id"`
	// FileID contains ID of file.
	FileID int64 `db:"file_id"`
	// Name contains human readable name of attachment.
	Name string `db:"name"`
}

// Clone creates copy of project file.
func (o ProjectFile) Clone() ProjectFile {
	return o
}

// ProjectFileEvent represents a project file event.
type ProjectFileEvent struct {
	baseEvent
	ProjectFile
}

// Object returns event project file.
func (e ProjectFileEvent) Object() ProjectFile {
	return e.ProjectFile
}

// SetObject sets event project file.
func (e *ProjectFileEvent) SetObject(o ProjectFile) {
	e.ProjectFile = o
}

// ProjectFileStore represents store for project files.
type ProjectFileStore struct {
	cachedStore[ProjectFile, ProjectFileEvent, *ProjectFile, *ProjectFileEvent]
	byProject *btreeIndex[int64, ProjectFile, *ProjectFile]
}

// FindByProject returns files by project ID.
func (s *ProjectFileStore) FindByProject(ctx context.Context, projectID ...int64) (db.Rows[ProjectFile], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byProject,
		s.objects.Iter(),
		s.mutex.RLocker(),
		projectID,
		0,
	), nil
}

// NewProjectFileStore creates a new instance of ProjectFileStore.
func NewProjectFileStore(
	db *gosql.DB, table, eventTable string,
) *ProjectFileStore {
	impl := &ProjectFileStore{
		byProject: newBTreeIndex(func(o ProjectFile) (int64, bool) { return o.ProjectID, true }, lessInt64),
	}
	impl.cachedStore = makeCachedStore[ProjectFile, ProjectFileEvent](
		db, table, eventTable, impl, impl.byProject,
	)
	return impl
}
