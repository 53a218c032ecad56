package controller

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/site/service"
)

const (
	profileImagePrefix = "profile"
	imageRejected      = "The uploaded image was an invalid type or too large."
	imageFailed        = "The server encountered an error when saving the image. Please try again later."
)

// Profile shows public profiles and lets users edit their own.
type Profile struct {
	resp      *service.Response
	users     *service.UserService
	validator *service.Validator
	storage   storage.Storage
	logger    *slog.Logger
}

// NewProfile creates the User.Profile controller. Profile images go to store.
func NewProfile(resp *service.Response, users *service.UserService, v *service.Validator, store storage.Storage, logger *slog.Logger) *Profile {
	return &Profile{resp: resp, users: users, validator: v, storage: store, logger: logger}
}

// Index shows the profile of username.
func (c *Profile) Index(ctx context.Context, username string) (candlewax.Outcome, error) {
	profile, err := c.users.ProfileInfo(ctx, username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return c.resp.Forward(string(TypeProfile), "userNotFound", map[string]any{"username": username}), nil
	}
	return c.resp.Render(ctx, "User/Profile/index", map[string]any{"user": *profile}), nil
}

// Update saves a new bio and profile image. The previous image is removed
// once the new one is stored.
func (c *Profile) Update(ctx context.Context, form map[string]string, session map[string]any, files map[string]*multipart.FileHeader) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}
	userID := service.UserID(session)

	var columns db.Columns
	if fh := files["image"]; fh != nil && fh.Filename != "" {
		key, msg := c.storeImage(ctx, fh)
		if msg != "" {
			c.resp.Flash(ctx, service.FlashErrors, map[string][]string{"image": {msg}})
			return c.resp.Redirect(ctx, accountEditPath), nil
		}
		c.deleteOldImage(ctx, userID)
		columns = append(columns, db.Col("image", key))
	}
	if bio, ok := form["bio"]; ok {
		columns = append(columns, db.Col("bio", bio))
	}

	if len(columns) > 0 {
		if err := c.users.UpdateProfile(ctx, userID, columns); err != nil {
			return nil, err
		}
		c.resp.Flash(ctx, service.FlashMessages, []string{"Your profile was updated successfully!"})
	}
	return c.resp.Redirect(ctx, accountEditPath), nil
}

// UserNotFound tells the visitor no user is called username.
func (c *Profile) UserNotFound(ctx context.Context, username string) (candlewax.Outcome, error) {
	return c.resp.Render(ctx, "User/Profile/404", map[string]any{"username": username}), nil
}

// storeImage uploads fh and returns its key, or a message for the visitor.
func (c *Profile) storeImage(ctx context.Context, fh *multipart.FileHeader) (string, string) {
	key, err := storage.PutImage(ctx, c.storage, fh, profileImagePrefix, c.validator.ImageRules())
	switch {
	case err == nil:
		return key, ""
	case errors.Is(err, storage.ErrInvalidType), errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrEmptyFile):
		return "", imageRejected
	default:
		c.logger.ErrorContext(ctx, "store profile image", slog.Any("error", err))
		return "", imageFailed
	}
}

func (c *Profile) deleteOldImage(ctx context.Context, userID int64) {
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return
	}
	profile, err := c.users.ProfileInfo(ctx, user.Username)
	if err != nil || profile == nil || profile.Image == "" {
		return
	}
	if err := c.storage.Delete(ctx, profile.Image); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.logger.WarnContext(ctx, "delete old profile image", slog.String("key", profile.Image), slog.Any("error", err))
	}
}

func profileSpec() candlewax.ControllerSpec {
	return candlewax.ControllerSpec{
		Type: TypeProfile,
		Actions: []candlewax.ActionSpec{
			{
				Name:   "index",
				Params: []candlewax.Param{stringParam("username")},
				Invoke: action(func(c *Profile, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Index(ctx, args.String(0))
				}),
			},
			{
				Name:   "update",
				Params: []candlewax.Param{postParam, sessionParam, filesParam},
				Invoke: action(func(c *Profile, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Update(ctx, args.Form(0), args.Session(1), args.Files(2))
				}),
			},
			{
				Name:   "userNotFound",
				Params: []candlewax.Param{stringParam("username")},
				Invoke: action(func(c *Profile, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.UserNotFound(ctx, args.String(0))
				}),
			},
		},
	}
}
