package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/validator"
	"github.com/candlewaxgames/candlewax/site/service"
)

const (
	verifySuccess = "Email verified successfully!"
	verifyFailure = "Your email could not be verified. Please request a new verification email and try again."
	wrongPassword = "The password was incorrect."
)

// Account handles signing up, logging in and editing account details.
type Account struct {
	resp      *service.Response
	users     *service.UserService
	validator *service.Validator
	logger    *slog.Logger
}

// NewAccount creates the User.Account controller.
func NewAccount(resp *service.Response, users *service.UserService, v *service.Validator, logger *slog.Logger) *Account {
	return &Account{resp: resp, users: users, validator: v, logger: logger}
}

func accountRules(form map[string]string) validator.Rules {
	return validator.Rules{
		"username": {validator.AlphaNum("Username must contain only letters and numbers.")},
		"email":    {validator.Email("Must be a valid email.")},
		"password": {validator.Min(8, "Password must be at least 8 characters long.")},
		"confirm":  {validator.Identical(form["password"], "The password fields must match.")},
	}
}

// Login shows the login form, or logs in with the submitted credentials.
func (c *Account) Login(ctx context.Context, form map[string]string) (candlewax.Outcome, error) {
	if len(form) == 0 {
		return c.resp.Render(ctx, "User/Account/login", nil), nil
	}

	user, err := c.users.Login(ctx, form["email"], form["password"])
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.resp.Render(ctx, "User/Account/login", map[string]any{
			service.FlashErrors: map[string][]string{"email": {"The email and password combination are incorrect."}},
		}), nil
	case err != nil:
		return nil, err
	}
	return c.resp.Redirect(ctx, "/u/"+user.Username), nil
}

// Register creates an account, sends the verification email and logs in.
func (c *Account) Register(ctx context.Context, form map[string]string) (candlewax.Outcome, error) {
	data, errs := c.validator.Validate(form, accountRules(form))
	errs, err := c.checkUnique(ctx, data, errs, nil)
	if err != nil {
		return nil, err
	}
	if errs != nil {
		c.resp.Flash(ctx, service.FlashErrors, errs)
		return c.resp.Redirect(ctx, loginPath), nil
	}

	user, err := c.users.Create(ctx, data["username"], data["email"], data["password"])
	if err != nil {
		return nil, err
	}
	if err := c.users.SendVerificationEmail(ctx, user.ID, user.Email); err != nil {
		c.logger.ErrorContext(ctx, "send verification email", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	if _, err := c.users.Login(ctx, data["email"], data["password"]); err != nil {
		return nil, err
	}
	c.resp.Flash(ctx, service.FlashMessages, []string{"Account created!"})
	return c.resp.Redirect(ctx, "/u/"+user.Username), nil
}

// Edit shows the account and profile forms.
func (c *Account) Edit(ctx context.Context, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}
	user, err := c.users.FindByID(ctx, service.UserID(session))
	if err != nil {
		return nil, err
	}
	profile, err := c.users.ProfileInfo(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	return c.resp.Render(ctx, "User/Account/edit", map[string]any{
		"user":    *user,
		"profile": profile,
	}), nil
}

// Update changes the username and email after checking the password. A new
// email replaces any pending verification.
func (c *Account) Update(ctx context.Context, form map[string]string, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}
	user, err := c.users.FindByID(ctx, service.UserID(session))
	if err != nil {
		return nil, err
	}

	rules := accountRules(form)
	delete(rules, "confirm")
	data, errs := c.validator.Validate(form, rules)
	if !service.CheckPassword(*user, data["password"]) {
		errs = addError(errs, "password", wrongPassword)
	}
	errs, err = c.checkUnique(ctx, data, errs, user)
	if err != nil {
		return nil, err
	}
	if errs != nil {
		c.resp.Flash(ctx, service.FlashErrors, errs)
		return c.resp.Redirect(ctx, accountEditPath), nil
	}

	if err := c.users.UpdateUser(ctx, user.ID, db.Columns{
		db.Col("username", data["username"]),
		db.Col("email", data["email"]),
	}); err != nil {
		return nil, err
	}
	if data["email"] != user.Email {
		if err := c.users.CancelEmailVerification(ctx, user.ID); err != nil {
			return nil, err
		}
		if err := c.users.SendVerificationEmail(ctx, user.ID, data["email"]); err != nil {
			c.logger.ErrorContext(ctx, "send verification email", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}

	c.resp.Flash(ctx, service.FlashMessages, []string{"Account details updated."})
	return c.resp.Redirect(ctx, accountEditPath), nil
}

// UpdatePassword replaces the password after checking the old one.
func (c *Account) UpdatePassword(ctx context.Context, form map[string]string, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}
	user, err := c.users.FindByID(ctx, service.UserID(session))
	if err != nil {
		return nil, err
	}

	data, errs := c.validator.Validate(form, validator.Rules{
		"old_password": {validator.Min(8, "Password must be at least 8 characters long.")},
		"new_password": {validator.Min(8, "Password must be at least 8 characters long.")},
		"new_confirm":  {validator.Identical(form["new_password"], "The password fields must match.")},
	})
	if !service.CheckPassword(*user, data["old_password"]) {
		errs = addError(errs, "old_password", wrongPassword)
	}
	if errs != nil {
		c.resp.Flash(ctx, service.FlashErrors, errs)
		return c.resp.Redirect(ctx, accountEditPath), nil
	}

	if err := c.users.UpdateUser(ctx, user.ID, db.Columns{db.Col("password", data["new_password"])}); err != nil {
		return nil, err
	}
	c.resp.Flash(ctx, service.FlashMessages, []string{"Password updated."})
	return c.resp.Redirect(ctx, accountEditPath), nil
}

// Verify consumes an email verification token.
func (c *Account) Verify(ctx context.Context, token string) (candlewax.Outcome, error) {
	ok, err := c.users.VerifyEmail(ctx, token)
	if err != nil {
		return nil, err
	}
	msg := verifySuccess
	if !ok {
		msg = verifyFailure
	}
	c.resp.Flash(ctx, service.FlashMessages, []string{msg})
	return c.resp.Redirect(ctx, loginPath), nil
}

// Logout ends the session.
func (c *Account) Logout(ctx context.Context) (candlewax.Outcome, error) {
	c.users.Logout(ctx)
	return c.resp.Redirect(ctx, loginPath), nil
}

// checkUnique adds an error for a username or email that changed and is
// taken by another account. A nil current user means every value is new.
func (c *Account) checkUnique(ctx context.Context, data map[string]string, errs map[string][]string, current *service.User) (map[string][]string, error) {
	if _, bad := errs["username"]; !bad && (current == nil || current.Username != data["username"]) {
		unique, err := c.users.IsUsernameUnique(ctx, data["username"])
		if err != nil {
			return nil, err
		}
		if !unique {
			errs = addError(errs, "username", fmt.Sprintf("The username %s is already taken.", data["username"]))
		}
	}
	if _, bad := errs["email"]; !bad && (current == nil || current.Email != data["email"]) {
		unique, err := c.users.IsEmailUnique(ctx, data["email"])
		if err != nil {
			return nil, err
		}
		if !unique {
			errs = addError(errs, "email", fmt.Sprintf("The email %s is already taken.", data["email"]))
		}
	}
	return errs, nil
}

func addError(errs map[string][]string, field, msg string) map[string][]string {
	if errs == nil {
		errs = make(map[string][]string)
	}
	errs[field] = append(errs[field], msg)
	return errs
}

func accountSpec() candlewax.ControllerSpec {
	withSession := []candlewax.Param{postParam, sessionParam}
	return candlewax.ControllerSpec{
		Type: TypeAccount,
		Actions: []candlewax.ActionSpec{
			{
				Name:   "login",
				Params: []candlewax.Param{postParam},
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Login(ctx, args.Form(0))
				}),
			},
			{
				Name:   "register",
				Params: []candlewax.Param{postParam},
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Register(ctx, args.Form(0))
				}),
			},
			{
				Name:   "edit",
				Params: []candlewax.Param{sessionParam},
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Edit(ctx, args.Session(0))
				}),
			},
			{
				Name:   "update",
				Params: withSession,
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Update(ctx, args.Form(0), args.Session(1))
				}),
			},
			{
				Name:   "updatePassword",
				Params: withSession,
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.UpdatePassword(ctx, args.Form(0), args.Session(1))
				}),
			},
			{
				Name:   "verify",
				Params: []candlewax.Param{stringParam("token")},
				Invoke: action(func(c *Account, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Verify(ctx, args.String(0))
				}),
			},
			{Name: "logout", Invoke: action(func(c *Account, ctx context.Context, _ candlewax.Args) (candlewax.Outcome, error) {
				return c.Logout(ctx)
			})},
		},
	}
}
