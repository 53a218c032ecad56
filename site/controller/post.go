package controller

import (
	"context"
	"strconv"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/validator"
	"github.com/candlewaxgames/candlewax/site/service"
)

const postsPerPage = 10

// Post serves the discussion board: thread lists, threads and replies.
type Post struct {
	resp      *service.Response
	posts     *service.PostService
	validator *service.Validator
}

// NewPost creates the Discussion.Post controller.
func NewPost(resp *service.Response, posts *service.PostService, v *service.Validator) *Post {
	return &Post{resp: resp, posts: posts, validator: v}
}

// Index lists published threads, newest first.
func (c *Post) Index(ctx context.Context, page int64, session map[string]any) (candlewax.Outcome, error) {
	total, err := c.posts.Count(ctx, db.Columns{db.Col("parent_id", nil)})
	if err != nil {
		return nil, err
	}
	page, offset := pageOffset(page, postsPerPage)
	posts, err := c.posts.FindAll(ctx, postsPerPage, offset)
	if err != nil {
		return nil, err
	}
	return c.resp.Render(ctx, "Discussion/Post/index", map[string]any{
		"posts":        posts,
		"page_count":   service.PageCount(total, postsPerPage),
		"current_page": page,
		"loggedIn":     loggedIn(session),
	}), nil
}

// View shows a thread with its replies, newest reply first.
func (c *Post) View(ctx context.Context, slug string) (candlewax.Outcome, error) {
	post, err := c.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return c.resp.Forward(string(TypePost), "notFound", map[string]any{"slug": slug}), nil
	}
	replies, err := c.posts.Replies(ctx, post.ID, "posts.created_at DESC, posts.id DESC")
	if err != nil {
		return nil, err
	}
	return c.resp.Render(ctx, "Discussion/Post/view", map[string]any{
		"article": *post,
		"replies": replies,
	}), nil
}

// Create shows the new thread form.
func (c *Post) Create(ctx context.Context, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}
	return c.resp.Render(ctx, "Discussion/Post/create", nil), nil
}

// Store saves a new thread and shows it.
func (c *Post) Store(ctx context.Context, form map[string]string, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}

	data, errs := c.validator.Validate(form, validator.Rules{
		"title":   {validator.Required("The post must have a title.")},
		"content": {validator.Required("The post must have content.")},
	})
	if errs != nil {
		c.resp.Flash(ctx, service.FlashErrors, errs)
		return c.resp.Redirect(ctx, "/discussion/post/create"), nil
	}

	slug, err := c.posts.UniqueSlug(ctx, data["title"])
	if err != nil {
		return nil, err
	}
	if _, err := c.posts.Create(ctx, service.NewPost{
		Title:     data["title"],
		Slug:      slug,
		Content:   data["content"],
		Published: true,
		UserID:    service.UserID(session),
	}); err != nil {
		return nil, err
	}
	return c.resp.Redirect(ctx, "/p/"+slug), nil
}

// StoreReply saves a reply to any post of a thread and returns to the thread.
func (c *Post) StoreReply(ctx context.Context, form map[string]string, session map[string]any) (candlewax.Outcome, error) {
	if !loggedIn(session) {
		return c.resp.Redirect(ctx, loginPath), nil
	}

	data, errs := c.validator.Validate(form, validator.Rules{
		"parent_id": {validator.Check(isID, "The post you replied to does not exist.")},
		"content":   {validator.Required("You need to type a reply.")},
	})

	var root *service.Post
	parentID, _ := strconv.ParseInt(data["parent_id"], 10, 64)
	if parentID > 0 {
		var err error
		if root, err = c.posts.FindRoot(ctx, parentID); err != nil {
			return nil, err
		}
	}
	if root == nil {
		return c.resp.Redirect(ctx, "/discussion"), nil
	}

	if errs == nil {
		slug, err := c.posts.UniqueSlug(ctx, root.Title+"-reply")
		if err != nil {
			return nil, err
		}
		if _, err := c.posts.Create(ctx, service.NewPost{
			Slug:      slug,
			Content:   data["content"],
			Published: true,
			UserID:    service.UserID(session),
			ParentID:  parentID,
		}); err != nil {
			return nil, err
		}
	} else {
		c.resp.Flash(ctx, service.FlashErrors, errs)
	}
	return c.resp.Redirect(ctx, "/p/"+root.Slug), nil
}

// NotFound tells the visitor no thread has slug.
func (c *Post) NotFound(ctx context.Context, slug string) (candlewax.Outcome, error) {
	return c.resp.Render(ctx, "Discussion/Post/404", map[string]any{"slug": slug}), nil
}

func isID(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n > 0
}

func postSpec() candlewax.ControllerSpec {
	return candlewax.ControllerSpec{
		Type: TypePost,
		Actions: []candlewax.ActionSpec{
			{
				Name:   "index",
				Params: []candlewax.Param{pageParam(), sessionParam},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Index(ctx, args.Int(0), args.Session(1))
				}),
			},
			{
				Name:   "view",
				Params: []candlewax.Param{stringParam("slug")},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.View(ctx, args.String(0))
				}),
			},
			{
				Name:   "create",
				Params: []candlewax.Param{sessionParam},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Create(ctx, args.Session(0))
				}),
			},
			{
				Name:   "store",
				Params: []candlewax.Param{postParam, sessionParam},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.Store(ctx, args.Form(0), args.Session(1))
				}),
			},
			{
				Name:   "storeReply",
				Params: []candlewax.Param{postParam, sessionParam},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.StoreReply(ctx, args.Form(0), args.Session(1))
				}),
			},
			{
				Name:   "notFound",
				Params: []candlewax.Param{stringParam("slug")},
				Invoke: action(func(c *Post, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.NotFound(ctx, args.String(0))
				}),
			},
		},
	}
}
