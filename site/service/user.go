package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

const (
	verifyTable    = "email_verification_tokens"
	defaultBio     = "No bio entered."
	verifyTemplate = "verify_email.md"
)

// User is an account.
type User struct {
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    string
	ID           int64
}

// Profile is the public face of an account.
type Profile struct {
	Username string
	Bio      string
	Image    string
	UserID   int64
}

func userFromEntity(e *db.Entity) User {
	return User{
		ID:           e.ID(),
		Username:     e.String("username"),
		Email:        e.String("email"),
		PasswordHash: e.String("password"),
		CreatedAt:    e.String("created_at"),
	}
}

// UserService manages accounts, logins and email verification.
type UserService struct {
	engine  *db.Engine
	mailer  Mailer
	siteURL string
	cost    int
}

// UserOption configures a UserService.
type UserOption func(*UserService)

// WithBcryptCost sets the password hashing cost. Tests lower it.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// NewUserService creates a UserService. siteURL prefixes links in email.
func NewUserService(engine *db.Engine, mailer Mailer, siteURL string, opts ...UserOption) *UserService {
	s := &UserService{
		engine:  engine,
		mailer:  mailer,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a user with a hashed password and an empty profile.
func (s *UserService) Create(ctx context.Context, username, email, password string) (*User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	var user User
	err = s.engine.WithTx(ctx, func(tx *db.Engine) error {
		created, err := tx.Create(ctx, userTable, db.Columns{
			db.Col("username", username),
			db.Col("email", email),
			db.Col("password", hash),
		})
		if err != nil {
			return err
		}
		user = User{ID: created[0].ID(), Username: username, Email: email, PasswordHash: hash}

		_, err = tx.Create(ctx, profileTable, db.Columns{
			db.Col("user_id", user.ID),
			db.Col("bio", defaultBio),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return &user, nil
}

// Login checks the credentials and records the user in the session. The
// session token is rotated so a token seen before login is useless after.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, error) {
	sess := session.FromContext(ctx)
	if sess == nil {
		return nil, ErrNoSession
	}

	users, err := s.Find(ctx, db.Columns{db.Col("email", email)})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 || !CheckPassword(users[0], password) {
		return nil, ErrInvalidCredentials
	}

	user := users[0]
	sess.Set(SessionUserID, user.ID)
	sess.Set(SessionUsername, user.Username)
	sess.Regenerate()
	return &user, nil
}

// Logout ends the session.
func (s *UserService) Logout(ctx context.Context) {
	if sess := session.FromContext(ctx); sess != nil {
		sess.Destroy()
	}
}

// Find returns the users matching where.
func (s *UserService) Find(ctx context.Context, where db.Columns) ([]User, error) {
	rows, err := s.engine.Read(ctx, userTable, where, "=")
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := make([]User, len(rows))
	for i, e := range rows {
		users[i] = userFromEntity(e)
	}
	return users, nil
}

// FindByID returns the user with id or ErrUserNotFound.
func (s *UserService) FindByID(ctx context.Context, id int64) (*User, error) {
	users, err := s.Find(ctx, db.Columns{db.Col("id", id)})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return &users[0], nil
}

// SendVerificationEmail stores a new token for the user and mails a link
// carrying it.
func (s *UserService) SendVerificationEmail(ctx context.Context, userID int64, email string) error {
	token, err := newToken()
	if err != nil {
		return err
	}
	if _, err := s.engine.Create(ctx, verifyTable, db.Columns{
		db.Col("user_id", userID),
		db.Col("token", token),
	}); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	return s.mailer.Send(ctx, email, verifyTemplate, map[string]any{
		"Link": s.siteURL + "/user/account/verify/" + token,
	})
}

// VerifyEmail consumes token. It reports false for unknown tokens.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	where := db.Columns{db.Col("token", token)}
	n, err := s.engine.Count(ctx, verifyTable, where, "=")
	if err != nil {
		return false, fmt.Errorf("find verification token: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := s.engine.Delete(ctx, verifyTable, where); err != nil {
		return false, fmt.Errorf("delete verification token: %w", err)
	}
	return true, nil
}

// CancelEmailVerification drops every pending token of the user.
func (s *UserService) CancelEmailVerification(ctx context.Context, userID int64) error {
	if err := s.engine.Delete(ctx, verifyTable, db.Columns{db.Col("user_id", userID)}); err != nil {
		return fmt.Errorf("cancel email verification: %w", err)
	}
	return nil
}

// IsUsernameUnique reports whether no account uses username.
func (s *UserService) IsUsernameUnique(ctx context.Context, username string) (bool, error) {
	return s.unique(ctx, "username", username)
}

// IsEmailUnique reports whether no account uses email.
func (s *UserService) IsEmailUnique(ctx context.Context, email string) (bool, error) {
	return s.unique(ctx, "email", email)
}

func (s *UserService) unique(ctx context.Context, column, value string) (bool, error) {
	n, err := s.engine.Count(ctx, userTable, db.Columns{db.Col(column, value)}, "=")
	if err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return n == 0, nil
}

// ProfileInfo returns the profile of username, or nil when there is no
// such user.
func (s *UserService) ProfileInfo(ctx context.Context, username string) (*Profile, error) {
	rows, err := s.engine.ReadLeftJoin(ctx, db.LeftJoinQuery{
		Table: userTable,
		Joins: []db.Join{{Table: profileTable, On: [2]string{"id", "user_id"}}},
		Where: db.Columns{db.Col("users.username", username)},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("read profile of %s: %w", username, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e := rows[0]
	return &Profile{
		UserID:   e.ID(),
		Username: e.String("username"),
		Bio:      e.String("bio"),
		Image:    e.String("image"),
	}, nil
}

// UpdateUser writes columns to the user. A "password" column is hashed first.
func (s *UserService) UpdateUser(ctx context.Context, userID int64, columns db.Columns) error {
	for i, c := range columns {
		if c.Name != "password" {
			continue
		}
		pw, _ := c.Value.(string)
		hash, err := s.hash(pw)
		if err != nil {
			return err
		}
		columns[i].Value = hash
	}
	return s.update(ctx, userTable, db.Columns{db.Col("id", userID)}, columns)
}

// UpdateProfile writes columns to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, columns db.Columns) error {
	return s.update(ctx, profileTable, db.Columns{db.Col("user_id", userID)}, columns)
}

func (s *UserService) update(ctx context.Context, table string, where, columns db.Columns) error {
	entity, err := s.engine.ReadOne(ctx, table, where)
	if err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}
	if entity == nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, table)
	}
	for _, c := range columns {
		if err := entity.Set(c.Name, c.Value); err != nil {
			return err
		}
	}
	if err := s.engine.Update(ctx, entity); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the user's hash.
func CheckPassword(u User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) && err == nil
}

func newToken() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
