package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/collection"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// OwnedData is a collection whose documents carry the owner's subject id.
type OwnedData interface {
	IDsOwnedBy(ctx context.Context, uid string) ([]string, error)
	DeleteIDs(ctx context.Context, ids []string) error
}

// PurgeResult reports what an account purge removed. Pending lists the
// collections whose cleanup failed and was queued for the sweep.
type PurgeResult struct {
	UID            string   `json:"uid"`
	RoleRemoved    bool     `json:"roleRemoved"`
	OrdersDeleted  int      `json:"ordersDeleted"`
	ReviewsDeleted int      `json:"reviewsDeleted"`
	Pending        []string `json:"pending"`
}

// SweepReport summarises one backlog sweep.
type SweepReport struct {
	Retried   int `json:"retried"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// PurgeService deletes an account and the data that refers to it. There is
// no transaction across collections: the identity goes first, the rest is
// best effort and whatever fails lands in the backlog.
type PurgeService struct {
	identities identity.Provider
	roles      RoleStore
	orders     OwnedData
	reviews    OwnedData
	backlog    *repositories.BacklogRepository
}

func NewPurgeService(identities identity.Provider, roles RoleStore, orders, reviews OwnedData, backlog *repositories.BacklogRepository) *PurgeService {
	return &PurgeService{
		identities: identities,
		roles:      roles,
		orders:     orders,
		reviews:    reviews,
		backlog:    backlog,
	}
}

// Purge deletes the caller's own account.
func (s *PurgeService) Purge(ctx context.Context, subject rbac.Subject) (PurgeResult, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return PurgeResult{}, err
	}
	return s.purge(ctx, subject.ID)
}

// PurgeAccount deletes targetID on behalf of actor, who must own the
// account or be a manager.
func (s *PurgeService) PurgeAccount(ctx context.Context, actor rbac.Subject, role rbac.Role, targetID string) (PurgeResult, error) {
	if err := rbac.Authorize(actor, role, rbac.OwnOrManage, targetID); err != nil {
		return PurgeResult{}, err
	}
	res, err := s.purge(ctx, targetID)
	if err == nil {
		logger.WithCtx(ctx).Info("account purged", "uid", targetID, "by", actor.ID)
	}
	return res, err
}

func (s *PurgeService) purge(ctx context.Context, uid string) (PurgeResult, error) {
	const op = "accounts.purge"
	res := PurgeResult{UID: uid, Pending: []string{}}

	if err := s.identities.Delete(ctx, uid); err != nil {
		metrics.Purges.WithLabelValues("aborted").Inc()
		return res, identityErr(op, err)
	}

	failures := s.cascade(ctx, uid, []string{models.RolesCollection, models.OrdersCollection, models.ReviewsCollection}, &res)
	if len(failures) == 0 {
		metrics.Purges.WithLabelValues("complete").Inc()
		return res, nil
	}

	metrics.Purges.WithLabelValues("partial").Inc()
	res.Pending = failedSteps(failures)
	cause := errors.Join(stepErrors(failures)...)
	if err := s.backlog.Record(ctx, uid, res.Pending, cause); err != nil {
		logger.WithCtx(ctx).Error("purge: backlog write failed", "uid", uid, "pending", res.Pending, "error", err)
	}
	s.refreshGauge(ctx)
	return res, &apperr.Error{
		Kind:    apperr.KindCollaboratorFailed,
		Op:      op,
		Message: "Account deleted; cleanup pending for " + strings.Join(res.Pending, ", "),
		Err:     cause,
	}
}

type stepFailure struct {
	step string
	err  error
}

func failedSteps(fs []stepFailure) []string {
	return collection.Map(fs, func(f stepFailure) string { return f.step })
}

func stepErrors(fs []stepFailure) []error {
	return collection.Map(fs, func(f stepFailure) error { return fmt.Errorf("%s: %w", f.step, f.err) })
}

// cascade runs each step in order. A failed step does not stop the ones
// after it.
func (s *PurgeService) cascade(ctx context.Context, uid string, steps []string, res *PurgeResult) []stepFailure {
	var failures []stepFailure
	for _, step := range steps {
		var err error
		switch step {
		case models.RolesCollection:
			if err = s.roles.Remove(ctx, uid); err == nil {
				res.RoleRemoved = true
			}
		case models.OrdersCollection:
			res.OrdersDeleted, err = deleteOwned(ctx, s.orders, uid)
		case models.ReviewsCollection:
			res.ReviewsDeleted, err = deleteOwned(ctx, s.reviews, uid)
		default:
			err = fmt.Errorf("unknown purge step %q", step)
		}
		if err != nil {
			logger.WithCtx(ctx).Warn("purge: step failed", "uid", uid, "step", step, "error", err)
			failures = append(failures, stepFailure{step: step, err: err})
		}
	}
	return failures
}

func deleteOwned(ctx context.Context, data OwnedData, uid string) (int, error) {
	ids, err := data.IDsOwnedBy(ctx, uid)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := data.DeleteIDs(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Sweep retries every backlog entry once.
func (s *PurgeService) Sweep(ctx context.Context) (SweepReport, error) {
	entries, err := s.backlog.Pending(ctx)
	if err != nil {
		return SweepReport{}, apperr.Collaborator("accounts.sweep", err)
	}
	var rep SweepReport
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		rep.Retried++
		var res PurgeResult
		failures := s.cascade(ctx, e.SubjectID, e.Collections, &res)
		remaining := failedSteps(failures)
		if err := s.backlog.Record(ctx, e.SubjectID, remaining, errors.Join(stepErrors(failures)...)); err != nil {
			logger.WithCtx(ctx).Error("purge sweep: backlog write failed", "uid", e.SubjectID, "error", err)
		}
		if len(remaining) == 0 {
			rep.Completed++
			logger.WithCtx(ctx).Info("purge sweep: completed", "uid", e.SubjectID,
				"orders", res.OrdersDeleted, "reviews", res.ReviewsDeleted)
		}
	}
	rep.Remaining = rep.Retried - rep.Completed
	s.refreshGauge(ctx)
	return rep, nil
}

func (s *PurgeService) refreshGauge(ctx context.Context) {
	if entries, err := s.backlog.Pending(ctx); err == nil {
		metrics.PurgeBacklog.Set(float64(len(entries)))
	}
}
