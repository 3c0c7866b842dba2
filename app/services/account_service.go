package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shashiranjanraj/grinfood/app/jobs"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// RoleStore is the part of repositories.RoleStore the account flows use.
type RoleStore interface {
	RoleOf(ctx context.Context, subjectID string) (rbac.Role, error)
	Assign(ctx context.Context, subjectID string, role rbac.Role) error
	Remove(ctx context.Context, subjectID string) error
	Exists(ctx context.Context, subjectID string) (bool, error)
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"nullable,in=user,manager"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateEmailInput struct {
	NewEmail string `json:"newEmail" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by signup and signin.
type Session struct {
	UID   string    `json:"uid"`
	Token string    `json:"token"`
	Role  rbac.Role `json:"role"`
}

// Profile is the caller's own account as reported by check-auth.
type Profile struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
}

// AccountService covers sign-up, sign-in and the profile and email flows.
type AccountService struct {
	identities identity.Provider
	roles      RoleStore
	jobs       queue.Dispatcher
	appURL     string
}

// NewAccountService wires the account flows. appURL is where verification
// links send the user back to.
func NewAccountService(identities identity.Provider, roles RoleStore, dispatcher queue.Dispatcher, appURL string) *AccountService {
	return &AccountService{
		identities: identities,
		roles:      roles,
		jobs:       dispatcher,
		appURL:     strings.TrimRight(appURL, "/"),
	}
}

// Signup creates an identity and its role assignment. Only a manager may
// create another manager; everyone else gets the user role. If the role
// cannot be stored the identity is deleted again.
func (s *AccountService) Signup(ctx context.Context, caller rbac.Principal, in SignupInput) (Session, error) {
	const op = "accounts.signup"
	if err := check(in); err != nil {
		return Session{}, err
	}
	role, _ := rbac.ParseRole(in.Role)
	if role == rbac.RoleManager && !rbac.Allows(caller.Subject, caller.Role, rbac.Manage, "") {
		return Session{}, apperr.New(apperr.KindInsufficientRole, "Only managers may create manager accounts")
	}

	id, err := s.identities.Create(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return Session{}, identityErr(op, err)
	}
	if err := s.roles.Assign(ctx, id.UID, role); err != nil {
		if delErr := s.identities.Delete(ctx, id.UID); delErr != nil {
			logger.WithCtx(ctx).Error("signup: compensation failed, orphaned identity",
				"uid", id.UID, "error", delErr)
		}
		return Session{}, apperr.Collaborator(op, err)
	}

	token, err := s.identities.IssueToken(ctx, id.UID)
	if err != nil {
		return Session{}, identityErr(op, err)
	}
	logger.WithCtx(ctx).Info("account created", "uid", id.UID, "role", role)
	return Session{UID: id.UID, Token: token, Role: role}, nil
}

// Signin checks the password and issues a fresh access token.
func (s *AccountService) Signin(ctx context.Context, in SigninInput) (Session, error) {
	const op = "accounts.signin"
	if err := check(in); err != nil {
		return Session{}, err
	}
	id, err := s.identities.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return Session{}, identityErr(op, err)
	}
	role, err := s.roles.RoleOf(ctx, id.UID)
	if err != nil {
		return Session{}, apperr.Collaborator(op, err)
	}
	token, err := s.identities.IssueToken(ctx, id.UID)
	if err != nil {
		return Session{}, identityErr(op, err)
	}
	return Session{UID: id.UID, Token: token, Role: role}, nil
}

func (s *AccountService) Profile(ctx context.Context, subject rbac.Subject) (Profile, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return Profile{}, err
	}
	id, err := s.identities.Get(ctx, subject.ID)
	if err != nil {
		return Profile{}, identityErr("accounts.profile", err)
	}
	return Profile{UID: id.UID, Email: id.Email, DisplayName: id.DisplayName, EmailVerified: id.EmailVerified}, nil
}

func (s *AccountService) RoleOf(ctx context.Context, subject rbac.Subject) (rbac.Role, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return "", err
	}
	role, err := s.roles.RoleOf(ctx, subject.ID)
	if err != nil {
		return "", apperr.Collaborator("accounts.role", err)
	}
	return role, nil
}

// UpdateEmail changes the caller's email. The new address starts
// unverified.
func (s *AccountService) UpdateEmail(ctx context.Context, subject rbac.Subject, in UpdateEmailInput) (Profile, error) {
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return Profile{}, err
	}
	if err := check(in); err != nil {
		return Profile{}, err
	}
	id, err := s.identities.Update(ctx, subject.ID, identity.Changes{Email: &in.NewEmail})
	if err != nil {
		return Profile{}, identityErr("accounts.update_email", err)
	}
	return Profile{UID: id.UID, Email: id.Email, DisplayName: id.DisplayName, EmailVerified: id.EmailVerified}, nil
}

// AssignRole sets the role of another subject. Managers only.
func (s *AccountService) AssignRole(ctx context.Context, actor rbac.Subject, actorRole rbac.Role, targetID string, role rbac.Role) error {
	const op = "accounts.assign_role"
	if err := rbac.Authorize(actor, actorRole, rbac.Manage, ""); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Field("role", "The role must be one of user, manager.")
	}
	if _, err := s.identities.Get(ctx, targetID); err != nil {
		return identityErr(op, err)
	}
	if err := s.roles.Assign(ctx, targetID, role); err != nil {
		return apperr.Wrap(apperr.KindCollaboratorFailed, op, err)
	}
	logger.WithCtx(ctx).Info("role assigned", "by", actor.ID, "uid", targetID, "role", role)
	return nil
}

// EmailExists reports whether an identity uses email.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	if err := check(EmailInput{Email: email}); err != nil {
		return false, err
	}
	_, err := s.identities.LookupByEmail(ctx, email)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Collaborator("accounts.email_exists", err)
	}
	return true, nil
}

// Registered reports whether the caller has both an identity with an email
// and a stored role assignment.
func (s *AccountService) Registered(ctx context.Context, subject rbac.Subject) (bool, error) {
	const op = "accounts.registered"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return false, err
	}
	id, err := s.identities.Get(ctx, subject.ID)
	if errors.Is(err, identity.ErrNotFound) || (err == nil && id.Email == "") {
		return false, nil
	}
	if err != nil {
		return false, apperr.Collaborator(op, err)
	}
	ok, err := s.roles.Exists(ctx, subject.ID)
	if err != nil {
		return false, apperr.Collaborator(op, err)
	}
	return ok, nil
}

// ForgotPassword queues a reset link. Unknown addresses are accepted
// silently so the endpoint does not reveal who has an account.
func (s *AccountService) ForgotPassword(ctx context.Context, in EmailInput) error {
	const op = "accounts.forgot_password"
	if err := check(in); err != nil {
		return err
	}
	link, err := s.identities.ResetLink(ctx, in.Email)
	if errors.Is(err, identity.ErrNotFound) {
		logger.WithCtx(ctx).Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return apperr.Collaborator(op, err)
	}
	if err := s.jobs.Dispatch(ctx, &jobs.ResetPasswordEmail{To: in.Email, Link: link}); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := check(in); err != nil {
		return err
	}
	if err := s.identities.ResetPassword(ctx, in.Token, in.Password); err != nil {
		return identityErr("accounts.reset_password", err)
	}
	return nil
}

// SendVerificationEmail queues a confirmation link for the caller's email.
func (s *AccountService) SendVerificationEmail(ctx context.Context, subject rbac.Subject) error {
	const op = "accounts.send_verification"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return err
	}
	id, err := s.identities.Get(ctx, subject.ID)
	if err != nil {
		return identityErr(op, err)
	}
	link, err := s.identities.VerificationLink(ctx, id.UID, s.appURL+"/profile")
	if err != nil {
		return identityErr(op, err)
	}
	if err := s.jobs.Dispatch(ctx, &jobs.VerificationEmail{To: id.Email, Link: link}); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}

// VerifyEmail consumes a verification token and returns its subject id.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.Field("token", "The token field is required.")
	}
	uid, err := s.identities.ConfirmEmail(ctx, token)
	if err != nil {
		return "", identityErr("accounts.verify_email", err)
	}
	return uid, nil
}

// NotifyProfileUpdated queues the profile-changed email to the caller.
func (s *AccountService) NotifyProfileUpdated(ctx context.Context, subject rbac.Subject) error {
	const op = "accounts.notify_profile"
	if err := rbac.Authorize(subject, "", rbac.Authenticated, ""); err != nil {
		return err
	}
	id, err := s.identities.Get(ctx, subject.ID)
	if err != nil {
		return identityErr(op, err)
	}
	if err := s.jobs.Dispatch(ctx, &jobs.ProfileUpdatedEmail{To: id.Email, Name: displayName(id)}); err != nil {
		return apperr.Collaborator(op, err)
	}
	return nil
}

// EmailVerified reports the verification state of uid. Owner or manager.
func (s *AccountService) EmailVerified(ctx context.Context, subject rbac.Subject, role rbac.Role, uid string) (Profile, error) {
	if err := rbac.Authorize(subject, role, rbac.OwnOrManage, uid); err != nil {
		return Profile{}, err
	}
	id, err := s.identities.Get(ctx, uid)
	if err != nil {
		return Profile{}, identityErr("accounts.email_verified", err)
	}
	return Profile{UID: id.UID, Email: id.Email, EmailVerified: id.EmailVerified}, nil
}

// DisplayName returns the public name of uid.
func (s *AccountService) DisplayName(ctx context.Context, uid string) (string, error) {
	id, err := s.identities.Get(ctx, uid)
	if err != nil {
		return "", identityErr("accounts.display_name", err)
	}
	return displayName(id), nil
}

func displayName(id identity.Identity) string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	return id.Email
}
