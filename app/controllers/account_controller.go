package controllers

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

type AccountController struct {
	accounts *services.AccountService
	purge    *services.PurgeService
	appURL   string
}

// NewAccountController serves sign-up, sign-in and the profile flows.
// appURL bounds where the email verification link may redirect.
func NewAccountController(accounts *services.AccountService, purge *services.PurgeService, appURL string) *AccountController {
	return &AccountController{accounts: accounts, purge: purge, appURL: strings.TrimRight(appURL, "/")}
}

type message struct {
	Message string `json:"message"`
}

type exists struct {
	Exists bool `json:"exists"`
}

func (ac *AccountController) Signup(c *ctx.Context) {
	var in services.SignupInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.accounts.Signup(c.Context(), c.Principal(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(sess)
}

func (ac *AccountController) Signin(c *ctx.Context) {
	var in services.SigninInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.accounts.Signin(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(sess)
}

func (ac *AccountController) CheckAuth(c *ctx.Context) {
	p, err := ac.accounts.Profile(c.Context(), c.Subject())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (ac *AccountController) GetRole(c *ctx.Context) {
	role, err := ac.accounts.RoleOf(c.Context(), c.Subject())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]rbac.Role{"role": role})
}

func (ac *AccountController) UpdateEmail(c *ctx.Context) {
	var in services.UpdateEmailInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := ac.accounts.UpdateEmail(c.Context(), c.Subject(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// DeleteSelf purges the caller's own account.
func (ac *AccountController) DeleteSelf(c *ctx.Context) {
	res, err := ac.purge.Purge(c.Context(), c.Subject())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AccountController) DeleteUser(c *ctx.Context) {
	res, err := ac.purge.PurgeAccount(c.Context(), c.Subject(), c.Role(), c.Param("uid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AccountController) AssignRole(c *ctx.Context) {
	var in models.RoleInput
	if !c.BindJSON(&in) {
		return
	}
	uid := c.Param("uid")
	role := rbac.Role(in.Role)
	if err := ac.accounts.AssignRole(c.Context(), c.Subject(), c.Role(), uid, role); err != nil {
		c.Fail(err)
		return
	}
	c.Success(models.RoleAssignment{SubjectID: uid, Role: role})
}

func (ac *AccountController) CheckUserExists(c *ctx.Context) {
	ok, err := ac.accounts.EmailExists(c.Context(), c.Query("email"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(exists{Exists: ok})
}

func (ac *AccountController) CheckUserByEmail(c *ctx.Context) {
	var in services.EmailInput
	if !c.BindJSON(&in) {
		return
	}
	ok, err := ac.accounts.EmailExists(c.Context(), in.Email)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(exists{Exists: ok})
}

func (ac *AccountController) ForgotPassword(c *ctx.Context) {
	var in services.EmailInput
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.accounts.ForgotPassword(c.Context(), in); err != nil {
		c.Fail(err)
		return
	}
	c.Success(message{Message: "If the address is registered, a reset link is on its way."})
}

func (ac *AccountController) ResetPassword(c *ctx.Context) {
	var in services.ResetPasswordInput
	if !c.BindJSON(&in) {
		return
	}
	if err := ac.accounts.ResetPassword(c.Context(), in); err != nil {
		c.Fail(err)
		return
	}
	c.Success(message{Message: "Password updated."})
}

func (ac *AccountController) NotifyProfileUpdated(c *ctx.Context) {
	if err := ac.accounts.NotifyProfileUpdated(c.Context(), c.Subject()); err != nil {
		c.Fail(err)
		return
	}
	c.Success(message{Message: "Notification queued."})
}

func (ac *AccountController) SendVerificationEmail(c *ctx.Context) {
	if err := ac.accounts.SendVerificationEmail(c.Context(), c.Subject()); err != nil {
		c.Fail(err)
		return
	}
	c.Success(message{Message: "Verification email queued."})
}

// VerifyEmail confirms the address and follows the continue URL when it
// points back into the application.
func (ac *AccountController) VerifyEmail(c *ctx.Context) {
	uid, err := ac.accounts.VerifyEmail(c.Context(), c.Query("token"))
	if err != nil {
		c.Fail(err)
		return
	}
	if next := c.Query("continue"); next != "" && ac.sameApp(next) {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Success(services.Profile{UID: uid, EmailVerified: true})
}

func (ac *AccountController) sameApp(u string) bool {
	return ac.appURL != "" && (u == ac.appURL || strings.HasPrefix(u, ac.appURL+"/"))
}

func (ac *AccountController) CheckEmailVerified(c *ctx.Context) {
	p, err := ac.accounts.EmailVerified(c.Context(), c.Subject(), c.Role(), c.Param("uid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"emailVerified": p.EmailVerified})
}

// UserName returns the public name of a user. Unknown users are reported
// as Anonymous with a 404.
func (ac *AccountController) UserName(c *ctx.Context) {
	name, err := ac.accounts.DisplayName(c.Context(), c.Param("uid"))
	if apperr.Is(err, apperr.KindNotFound) {
		c.JSON(http.StatusNotFound, map[string]string{"name": "Anonymous"})
		return
	}
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"name": name})
}
