package controller

import (
	"context"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/site/service"
)

const blogPostsPerPage = 9

// Blog lists the threads started by the site's author.
type Blog struct {
	resp     *service.Response
	posts    *service.PostService
	authorID int64
}

// NewBlog creates the Discussion.Blog controller. Threads of authorID make
// up the blog.
func NewBlog(resp *service.Response, posts *service.PostService, authorID int64) *Blog {
	return &Blog{resp: resp, posts: posts, authorID: authorID}
}

// Index lists a page of blog posts.
func (c *Blog) Index(ctx context.Context, page int64) (candlewax.Outcome, error) {
	total, err := c.posts.Count(ctx, db.Columns{
		db.Col("parent_id", nil),
		db.Col("user_id", c.authorID),
	})
	if err != nil {
		return nil, err
	}
	page, offset := pageOffset(page, blogPostsPerPage)
	posts, err := c.posts.Find(ctx, db.Columns{
		db.Col("is_published", true),
		db.Col("posts.user_id", c.authorID),
		db.Col("parent_id", nil),
	}, "=", blogPostsPerPage, offset)
	if err != nil {
		return nil, err
	}
	return c.resp.Render(ctx, "Discussion/Blog/index", map[string]any{
		"posts":        posts,
		"page_count":   service.PageCount(total, blogPostsPerPage),
		"current_page": page,
	}), nil
}

func blogSpec() candlewax.ControllerSpec {
	return candlewax.ControllerSpec{
		Type: TypeBlog,
		Actions: []candlewax.ActionSpec{{
			Name:   "index",
			Params: []candlewax.Param{pageParam()},
			Invoke: action(func(c *Blog, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
				return c.Index(ctx, args.Int(0))
			}),
		}},
	}
}
