// Package service holds the site's business logic: posts, users, games and
// the response helpers controllers use to answer.
package service

import (
	"context"

	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Injector types of the services.
const (
	TypeEngine    = "db.Engine"
	TypeMailer    = "service.Mailer"
	TypeStorage   = "service.Storage"
	TypePost      = "service.Post"
	TypeUser      = "service.User"
	TypeGame      = "service.Game"
	TypeResponse  = "service.Response"
	TypeValidator = "service.Validator"
)

// Session keys written on login.
const (
	SessionUserID   = "userId"
	SessionUsername = "username"
)

// Mailer sends templated email.
type Mailer interface {
	Send(ctx context.Context, to, template string, data any) error
}

// CurrentUserID returns the id of the logged in user, or 0.
func CurrentUserID(ctx context.Context) int64 {
	sess := session.FromContext(ctx)
	if sess == nil {
		return 0
	}
	return UserID(sess.Values)
}

// UserID reads the logged in user's id from session values.
func UserID(values map[string]any) int64 {
	switch v := values[SessionUserID].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
