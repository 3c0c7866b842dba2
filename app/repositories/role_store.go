package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// RoleStore maps subject ids to roles. A subject without an assignment is a
// plain user.
type RoleStore struct {
	col        docstore.Collection
	newBackOff BackOffFunc
	now        func() time.Time
}

func NewRoleStore(store docstore.Store) *RoleStore {
	return &RoleStore{
		col:        store.Collection(models.RolesCollection),
		newBackOff: DefaultBackOff,
		now:        time.Now,
	}
}

// WithBackOff replaces the retry policy used by RoleOf.
func (s *RoleStore) WithBackOff(f BackOffFunc) *RoleStore {
	s.newBackOff = f
	return s
}

// RoleOf returns the role assigned to subjectID, RoleUser when there is
// none. Store failures are retried with backoff before being returned.
func (s *RoleStore) RoleOf(ctx context.Context, subjectID string) (rbac.Role, error) {
	defer metrics.ObserveStoreOp(models.RolesCollection, "get", time.Now())

	var a models.RoleAssignment
	err := retryRead(ctx, s.newBackOff, func() error {
		return s.col.Get(ctx, subjectID, &a)
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return rbac.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	if !a.Role.Valid() {
		logger.WithCtx(ctx).Warn("roles: unknown stored role, treating as user", "uid", subjectID, "role", a.Role)
		return rbac.RoleUser, nil
	}
	return a.Role, nil
}

// Assign stores role for subjectID, replacing any previous assignment.
func (s *RoleStore) Assign(ctx context.Context, subjectID string, role rbac.Role) error {
	if !role.Valid() {
		return apperr.Field("role", "The role must be one of user, manager.")
	}
	defer metrics.ObserveStoreOp(models.RolesCollection, "set", time.Now())
	return s.col.Set(ctx, subjectID, models.RoleAssignment{
		SubjectID: subjectID,
		Role:      role,
		UpdatedAt: s.now().UTC(),
	})
}

// Remove deletes the assignment. Removing a missing one is not an error.
func (s *RoleStore) Remove(ctx context.Context, subjectID string) error {
	defer metrics.ObserveStoreOp(models.RolesCollection, "delete", time.Now())
	return s.col.Delete(ctx, subjectID)
}

// Exists reports whether subjectID has an explicit assignment.
func (s *RoleStore) Exists(ctx context.Context, subjectID string) (bool, error) {
	var a models.RoleAssignment
	err := s.col.Get(ctx, subjectID, &a)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
