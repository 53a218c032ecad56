package service

import (
	"context"
	"fmt"

	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/slug"
)

const (
	postTable    = "posts"
	userTable    = "users"
	profileTable = "user_profiles"
)

// authorJoins attach the author and the author's profile to every post.
var authorJoins = []db.Join{
	{Table: userTable, On: [2]string{"user_id", "id"}},
	{Table: profileTable, On: [2]string{"user_id", "user_id"}},
}

// Post is a discussion post or reply with its author.
type Post struct {
	Title     string
	Slug      string
	Content   string
	CreatedAt string
	Username  string
	Image     string
	ID        int64
	UserID    int64
	ParentID  int64
	Published bool
}

// Reply is a post with the replies made to it.
type Reply struct {
	Children []Reply
	Post     Post
}

// NewPost is the input of Post.Create. A zero ParentID starts a thread.
type NewPost struct {
	Title     string
	Slug      string
	Content   string
	UserID    int64
	ParentID  int64
	Published bool
}

func postFromEntity(e *db.Entity) Post {
	return Post{
		ID:        e.ID(),
		UserID:    e.Int("user_id"),
		ParentID:  e.Int("parent_id"),
		Title:     e.String("title"),
		Slug:      e.String("slug"),
		Content:   e.String("content"),
		Published: e.Bool("is_published"),
		CreatedAt: e.String("created_at"),
		Username:  e.String("username"),
		Image:     e.String("image"),
	}
}

func postsFromEntities(entities []*db.Entity) []Post {
	posts := make([]Post, len(entities))
	for i, e := range entities {
		posts[i] = postFromEntity(e)
	}
	return posts
}

// PostService stores and reads discussion posts.
type PostService struct {
	engine *db.Engine
}

// NewPostService creates a PostService.
func NewPostService(engine *db.Engine) *PostService {
	return &PostService{engine: engine}
}

// Create stores a post and returns its id.
func (s *PostService) Create(ctx context.Context, p NewPost) (int64, error) {
	var parent any
	if p.ParentID > 0 {
		parent = p.ParentID
	}
	created, err := s.engine.Create(ctx, postTable, db.Columns{
		db.Col("title", p.Title),
		db.Col("slug", p.Slug),
		db.Col("content", p.Content),
		db.Col("is_published", p.Published),
		db.Col("user_id", p.UserID),
		db.Col("parent_id", parent),
	})
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	return created[0].ID(), nil
}

// Find returns posts matching where, newest first. A zero limit returns all.
func (s *PostService) Find(ctx context.Context, where db.Columns, op string, limit, offset int) ([]Post, error) {
	rows, err := s.engine.ReadLeftJoin(ctx, db.LeftJoinQuery{
		Table:   postTable,
		Joins:   authorJoins,
		Where:   where,
		Op:      op,
		OrderBy: "posts.created_at DESC, posts.id DESC",
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	return postsFromEntities(rows), nil
}

// FindBySlug returns the post with slug, or nil.
func (s *PostService) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	posts, err := s.Find(ctx, db.Columns{db.Col("posts.slug", slug)}, "=", 1, 0)
	if err != nil || len(posts) == 0 {
		return nil, err
	}
	return &posts[0], nil
}

// FindAll pages through published threads.
func (s *PostService) FindAll(ctx context.Context, limit, offset int) ([]Post, error) {
	return s.Find(ctx, db.Columns{
		db.Col("is_published", true),
		db.Col("parent_id", nil),
	}, "=", limit, offset)
}

// Replies returns every reply below the post id as a tree. Siblings keep
// the order given by orderBy, which defaults to oldest first.
func (s *PostService) Replies(ctx context.Context, id int64, orderBy string) ([]Reply, error) {
	rows, err := s.engine.ReadRecursive(ctx, db.RecursiveQuery{
		Table:   postTable,
		Where:   db.Columns{db.Col("parent_id", id)},
		Union:   [2]string{"parent_id", "id"},
		Joins:   authorJoins,
		OrderBy: orderBy,
	})
	if err != nil {
		return nil, fmt.Errorf("read replies of post %d: %w", id, err)
	}

	children := make(map[int64][]Post)
	for _, p := range postsFromEntities(rows) {
		children[p.ParentID] = append(children[p.ParentID], p)
	}
	return replyTree(children, id), nil
}

func replyTree(children map[int64][]Post, parent int64) []Reply {
	posts := children[parent]
	if len(posts) == 0 {
		return nil
	}
	branch := make([]Reply, len(posts))
	for i, p := range posts {
		branch[i] = Reply{Post: p, Children: replyTree(children, p.ID)}
	}
	return branch
}

// FindRoot returns the thread a post belongs to, or nil when id is unknown.
func (s *PostService) FindRoot(ctx context.Context, id int64) (*Post, error) {
	root, err := s.engine.FindRoot(ctx, postTable, id)
	if err != nil {
		return nil, fmt.Errorf("find root of post %d: %w", id, err)
	}
	if root == nil {
		return nil, nil
	}
	p := postFromEntity(root)
	return &p, nil
}

// Count returns the number of posts matching where.
func (s *PostService) Count(ctx context.Context, where db.Columns) (int64, error) {
	n, err := s.engine.Count(ctx, postTable, where, "=")
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// UniqueSlug turns text into a slug and numbers it when posts with the same
// prefix exist: "hello", then "hello-1", "hello-2" and so on.
func (s *PostService) UniqueSlug(ctx context.Context, text string) (string, error) {
	base := slug.Make(text, slug.MaxLength(80))
	if base == "" {
		base = "post"
	}
	n, err := s.engine.Count(ctx, postTable, db.Columns{db.Col("slug", base+"%")}, "LIKE")
	if err != nil {
		return "", fmt.Errorf("count slugs: %w", err)
	}
	if n > 0 {
		return fmt.Sprintf("%s-%d", base, n), nil
	}
	return base, nil
}

// PageCount is the number of pages needed for total items.
func PageCount(total int64, perPage int) int64 {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}
