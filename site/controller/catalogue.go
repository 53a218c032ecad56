package controller

import (
	"context"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/site/service"
)

// Catalogue shows the games.
type Catalogue struct {
	resp  *service.Response
	games *service.GameService
}

// NewCatalogue creates the Games.Catalogue controller.
func NewCatalogue(resp *service.Response, games *service.GameService) *Catalogue {
	return &Catalogue{resp: resp, games: games}
}

// Index lists every game with its first screenshot as a thumbnail.
func (c *Catalogue) Index(ctx context.Context) (candlewax.Outcome, error) {
	games, err := c.games.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	thumbnails := make(map[int64]service.Screenshot, len(games))
	for _, g := range games {
		shots, err := c.games.Screenshots(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if len(shots) > 0 {
			thumbnails[g.ID] = shots[0]
		}
	}
	return c.resp.Render(ctx, "Games/Catalogue/index", map[string]any{
		"games":      games,
		"thumbnails": thumbnails,
	}), nil
}

// View shows one game with all its screenshots.
func (c *Catalogue) View(ctx context.Context, slug string) (candlewax.Outcome, error) {
	game, err := c.games.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return c.resp.Forward(string(TypeIndex), "notFound", nil), nil
	}
	shots, err := c.games.Screenshots(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	return c.resp.Render(ctx, "Games/Catalogue/view", map[string]any{
		"game":        *game,
		"screenshots": shots,
	}), nil
}

func catalogueSpec() candlewax.ControllerSpec {
	return candlewax.ControllerSpec{
		Type: TypeCatalogue,
		Actions: []candlewax.ActionSpec{
			{Name: "index", Invoke: action(func(c *Catalogue, ctx context.Context, _ candlewax.Args) (candlewax.Outcome, error) {
				return c.Index(ctx)
			})},
			{
				Name:   "view",
				Params: []candlewax.Param{stringParam("slug")},
				Invoke: action(func(c *Catalogue, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error) {
					return c.View(ctx, args.String(0))
				}),
			},
		},
	}
}
