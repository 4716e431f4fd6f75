package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

type directory struct {
	db *orgTable
}

var _ org.Directory = (*directory)(nil) // interface compliance check

func NewDirectory(db *DB) *directory {
	return &directory{db: db.org}
}

func (dir *directory) GetCampus(ctx context.Context, id string, exec ...core.DBExecutor) (org.Campus, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()
	if c, ok := dir.db.campuses[id]; ok {
		return *c, nil
	}
	return org.Campus{}, org.ErrCampusNotFound
}

func (dir *directory) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (org.Grade, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()
	if g, ok := dir.db.grades[id]; ok {
		return *g, nil
	}
	return org.Grade{}, org.ErrGradeNotFound
}

func (dir *directory) GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (org.Classroom, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()
	if c, ok := dir.db.classrooms[id]; ok {
		return *c, nil
	}
	return org.Classroom{}, org.ErrClassroomNotFound
}

func (dir *directory) QueryClassrooms(ctx context.Context, gradeID, shift string, exec ...core.DBExecutor) ([]org.Classroom, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()

	rooms := make([]org.Classroom, 0, 4)
	for _, c := range dir.db.classrooms {
		if c.GradeID == gradeID && c.Shift == shift {
			rooms = append(rooms, *c)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Section < rooms[j].Section })
	return rooms, nil
}

func (dir *directory) SetClassroomEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error {
	dir.db.mutex.Lock()
	defer dir.db.mutex.Unlock()

	c, ok := dir.db.classrooms[id]
	if !ok {
		return org.ErrClassroomNotFound
	}
	c.Enrolled += delta
	return nil
}

func (dir *directory) ActiveCoordinators(ctx context.Context, campusID string, exec ...core.DBExecutor) ([]org.Coordinator, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()

	coords := make([]org.Coordinator, 0, 4)
	for _, c := range dir.db.coordinators {
		if c.CampusID == campusID && c.IsActive {
			coords = append(coords, *c)
		}
	}
	return coords, nil
}

func (dir *directory) GetCoordinator(ctx context.Context, id string, exec ...core.DBExecutor) (org.Coordinator, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()
	if c, ok := dir.db.coordinators[id]; ok {
		return *c, nil
	}
	return org.Coordinator{}, org.ErrCoordinatorNotFound
}
