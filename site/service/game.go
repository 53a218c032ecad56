package service

import (
	"context"
	"fmt"

	"github.com/candlewaxgames/candlewax/pkg/db"
)

const (
	gameTable       = "games"
	screenshotTable = "game_screenshots"
)

// Game is a title in the catalogue.
type Game struct {
	Title       string
	Slug        string
	Description string
	ID          int64
}

// Screenshot is an image of a game.
type Screenshot struct {
	Image   string
	Caption string
	ID      int64
	GameID  int64
}

// GameService reads the game catalogue.
type GameService struct {
	engine *db.Engine
}

// NewGameService creates a GameService.
func NewGameService(engine *db.Engine) *GameService {
	return &GameService{engine: engine}
}

// Find returns the games matching where. An empty where returns all games.
func (s *GameService) Find(ctx context.Context, where db.Columns) ([]Game, error) {
	rows, err := s.engine.Read(ctx, gameTable, where, "=")
	if err != nil {
		return nil, fmt.Errorf("find games: %w", err)
	}
	games := make([]Game, len(rows))
	for i, e := range rows {
		games[i] = Game{
			ID:          e.ID(),
			Title:       e.String("title"),
			Slug:        e.String("slug"),
			Description: e.String("description"),
		}
	}
	return games, nil
}

// FindBySlug returns the game with slug, or nil.
func (s *GameService) FindBySlug(ctx context.Context, slug string) (*Game, error) {
	games, err := s.Find(ctx, db.Columns{db.Col("slug", slug)})
	if err != nil || len(games) == 0 {
		return nil, err
	}
	return &games[0], nil
}

// Screenshots returns the screenshots of the game.
func (s *GameService) Screenshots(ctx context.Context, gameID int64) ([]Screenshot, error) {
	rows, err := s.engine.Read(ctx, screenshotTable, db.Columns{db.Col("game_id", gameID)}, "=")
	if err != nil {
		return nil, fmt.Errorf("read screenshots of game %d: %w", gameID, err)
	}
	shots := make([]Screenshot, len(rows))
	for i, e := range rows {
		shots[i] = Screenshot{
			ID:      e.ID(),
			GameID:  e.Int("game_id"),
			Image:   e.String("image"),
			Caption: e.String("caption"),
		}
	}
	return shots, nil
}
