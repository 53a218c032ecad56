package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/site/service"
)

func TestGameService(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	games := service.NewGameService(engine)
	ctx := context.Background()

	rows, err := engine.Create(ctx, "games",
		db.Columns{db.Col("title", "Wax Hollow"), db.Col("slug", "wax-hollow"), db.Col("description", "A cave crawler.")},
		db.Columns{db.Col("title", "Wick"), db.Col("slug", "wick"), db.Col("description", "")},
	)
	require.NoError(t, err)
	_, err = engine.Create(ctx, "game_screenshots",
		db.Columns{db.Col("game_id", rows[0].ID()), db.Col("image", "hollow-1.png"), db.Col("caption", "Entrance")},
		db.Columns{db.Col("game_id", rows[0].ID()), db.Col("image", "hollow-2.png"), db.Col("caption", "")},
	)
	require.NoError(t, err)

	all, err := games.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	g, err := games.FindBySlug(ctx, "wax-hollow")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "A cave crawler.", g.Description)

	none, err := games.FindBySlug(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	shots, err := games.Screenshots(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, shots, 2)
	assert.Equal(t, "hollow-1.png", shots[0].Image)
	assert.Equal(t, "Entrance", shots[0].Caption)

	shots, err = games.Screenshots(ctx, rows[1].ID())
	require.NoError(t, err)
	assert.Empty(t, shots)
}
