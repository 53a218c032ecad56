// Package controller holds the site's controllers and the action tables the
// router dispatches through.
package controller

import (
	"context"
	"fmt"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/site/service"
)

// Injector types of the controllers.
var (
	TypeIndex     = candlewax.ControllerType("Index", "Index")
	TypePost      = candlewax.ControllerType("Discussion", "Post")
	TypeBlog      = candlewax.ControllerType("Discussion", "Blog")
	TypeCatalogue = candlewax.ControllerType("Games", "Catalogue")
	TypeAccount   = candlewax.ControllerType("User", "Account")
	TypeProfile   = candlewax.ControllerType("User", "Profile")
)

// Paths redirected to from several controllers.
const (
	loginPath       = "/user/account/login"
	accountEditPath = "/user/account/edit"
)

// Ambient parameters. They default to nil so actions run on an empty form,
// session or upload set.
var (
	postParam    = candlewax.Param{Name: candlewax.ParamPost, Kind: candlewax.KindForm}.Optional(nil)
	sessionParam = candlewax.Param{Name: candlewax.ParamSession, Kind: candlewax.KindSession}.Optional(nil)
	filesParam   = candlewax.Param{Name: candlewax.ParamFiles, Kind: candlewax.KindFiles}.Optional(nil)
)

func stringParam(name string) candlewax.Param {
	return candlewax.Param{Name: name, Kind: candlewax.KindString}
}

func pageParam() candlewax.Param {
	return candlewax.Param{Name: "pageNumber", Kind: candlewax.KindInt}.Optional(int64(1))
}

// action adapts a typed controller method to the router's ActionFunc.
func action[C any](fn func(c C, ctx context.Context, args candlewax.Args) (candlewax.Outcome, error)) candlewax.ActionFunc {
	return func(ctx context.Context, controller any, args candlewax.Args) (candlewax.Outcome, error) {
		c, ok := controller.(C)
		if !ok {
			return nil, fmt.Errorf("controller: got %T, want %T", controller, *new(C))
		}
		return fn(c, ctx, args)
	}
}

// Specs returns the action tables of every controller.
func Specs() []candlewax.ControllerSpec {
	return []candlewax.ControllerSpec{
		indexSpec(),
		postSpec(),
		blogSpec(),
		catalogueSpec(),
		accountSpec(),
		profileSpec(),
	}
}

func loggedIn(session map[string]any) bool {
	return service.UserID(session) != 0
}

// pageOffset clamps page to 1 or more and returns it with the offset of its
// first item.
func pageOffset(page int64, perPage int) (int64, int) {
	page = max(page, 1)
	return page, int(page-1) * perPage
}
