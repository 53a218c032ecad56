package controller

import (
	"context"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/site/service"
)

// Index serves the home page and the generic not-found page.
type Index struct {
	resp *service.Response
}

// NewIndex creates the Index controller.
func NewIndex(resp *service.Response) *Index {
	return &Index{resp: resp}
}

// Index renders the home page.
func (c *Index) Index(ctx context.Context) (candlewax.Outcome, error) {
	return c.resp.Render(ctx, "Index/index", nil), nil
}

// NotFound renders the page shown for unknown paths.
func (c *Index) NotFound(ctx context.Context) (candlewax.Outcome, error) {
	return c.resp.Render(ctx, "Index/404", nil), nil
}

func indexSpec() candlewax.ControllerSpec {
	return candlewax.ControllerSpec{
		Type: TypeIndex,
		Actions: []candlewax.ActionSpec{
			{Name: "index", Invoke: action(func(c *Index, ctx context.Context, _ candlewax.Args) (candlewax.Outcome, error) {
				return c.Index(ctx)
			})},
			{Name: "notFound", Invoke: action(func(c *Index, ctx context.Context, _ candlewax.Args) (candlewax.Outcome, error) {
				return c.NotFound(ctx)
			})},
		},
	}
}
