// Package site assembles the Candlewax Games site: services and controllers
// registered in an injector, the page views and the route table.
package site

import (
	"log/slog"
	"net/http"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/site/controller"
	"github.com/candlewaxgames/candlewax/site/service"
	"github.com/candlewaxgames/candlewax/site/view"
)

// TypeLogger is the injector type of the shared *slog.Logger.
const TypeLogger = "slog.Logger"

// Config holds the site settings.
type Config struct {
	// SiteURL prefixes links sent by email, e.g. "https://candlewax.games".
	SiteURL string `mapstructure:"site_url"`
	// DefaultModule serves "/".
	DefaultModule string `mapstructure:"default_module"`
	// BlogAuthorID owns the threads listed on the blog.
	BlogAuthorID int64 `mapstructure:"blog_author_id"`
	// BcryptCost is the password hashing cost. Zero means the bcrypt default.
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// Deps are the long lived collaborators built at process start.
type Deps struct {
	Engine  *db.Engine
	Mailer  service.Mailer
	Storage storage.Storage
	Logger  *slog.Logger
}

// Routes is the site's route table, tried after the
// /module/controller/action convention.
func Routes() []candlewax.Route {
	return []candlewax.Route{
		{Path: "/u/{username}", Controller: controller.TypeProfile, Action: "index"},
		{Path: "/p/{slug}", Controller: controller.TypePost, Action: "view"},
		{Path: "/discussion", Controller: controller.TypePost, Action: "index"},
		{Path: "/discussion/{pageNumber}", Controller: controller.TypePost, Action: "index"},
		{Path: "/blog", Controller: controller.TypeBlog, Action: "index"},
		{Path: "/blog/{pageNumber}", Controller: controller.TypeBlog, Action: "index"},
		{Path: "/games", Controller: controller.TypeCatalogue, Action: "index"},
		{Path: "/games/{slug}", Controller: controller.TypeCatalogue, Action: "view"},
	}
}

// NewInjector registers the shared collaborators as factories and declares
// every service and controller.
func NewInjector(deps Deps, cfg Config) *candlewax.Injector {
	if deps.Logger == nil {
		deps.Logger = logger.NewNope()
	}
	if cfg.BlogAuthorID == 0 {
		cfg.BlogAuthorID = 1
	}

	in := candlewax.NewInjector()
	in.Register(service.TypeEngine, func() (any, error) { return deps.Engine, nil })
	in.Register(service.TypeMailer, func() (any, error) { return deps.Mailer, nil })
	in.Register(service.TypeStorage, func() (any, error) { return deps.Storage, nil })
	in.Register(TypeLogger, func() (any, error) { return deps.Logger, nil })

	validator := service.NewValidator(storage.DefaultImageRules())
	in.Register(service.TypeValidator, func() (any, error) { return validator, nil })

	in.Provide(service.TypeResponse, nil, func([]any) (any, error) {
		return service.NewResponse(), nil
	})
	in.Provide(service.TypePost, dependencies(service.TypeEngine), func(d []any) (any, error) {
		return service.NewPostService(candlewax.Dep[*db.Engine](d, 0)), nil
	})
	in.Provide(service.TypeGame, dependencies(service.TypeEngine), func(d []any) (any, error) {
		return service.NewGameService(candlewax.Dep[*db.Engine](d, 0)), nil
	})
	in.Provide(service.TypeUser, dependencies(service.TypeEngine, service.TypeMailer), func(d []any) (any, error) {
		return service.NewUserService(
			candlewax.Dep[*db.Engine](d, 0),
			candlewax.Dep[service.Mailer](d, 1),
			cfg.SiteURL,
			service.WithBcryptCost(cfg.BcryptCost),
		), nil
	})

	in.Provide(controller.TypeIndex, dependencies(service.TypeResponse), func(d []any) (any, error) {
		return controller.NewIndex(candlewax.Dep[*service.Response](d, 0)), nil
	})
	in.Provide(controller.TypePost, dependencies(service.TypeResponse, service.TypePost, service.TypeValidator), func(d []any) (any, error) {
		return controller.NewPost(
			candlewax.Dep[*service.Response](d, 0),
			candlewax.Dep[*service.PostService](d, 1),
			candlewax.Dep[*service.Validator](d, 2),
		), nil
	})
	in.Provide(controller.TypeBlog, dependencies(service.TypeResponse, service.TypePost), func(d []any) (any, error) {
		return controller.NewBlog(
			candlewax.Dep[*service.Response](d, 0),
			candlewax.Dep[*service.PostService](d, 1),
			cfg.BlogAuthorID,
		), nil
	})
	in.Provide(controller.TypeCatalogue, dependencies(service.TypeResponse, service.TypeGame), func(d []any) (any, error) {
		return controller.NewCatalogue(
			candlewax.Dep[*service.Response](d, 0),
			candlewax.Dep[*service.GameService](d, 1),
		), nil
	})
	in.Provide(controller.TypeAccount, dependencies(service.TypeResponse, service.TypeUser, service.TypeValidator, TypeLogger), func(d []any) (any, error) {
		return controller.NewAccount(
			candlewax.Dep[*service.Response](d, 0),
			candlewax.Dep[*service.UserService](d, 1),
			candlewax.Dep[*service.Validator](d, 2),
			candlewax.Dep[*slog.Logger](d, 3),
		), nil
	})
	in.Provide(controller.TypeProfile, dependencies(service.TypeResponse, service.TypeUser, service.TypeValidator, service.TypeStorage, TypeLogger), func(d []any) (any, error) {
		return controller.NewProfile(
			candlewax.Dep[*service.Response](d, 0),
			candlewax.Dep[*service.UserService](d, 1),
			candlewax.Dep[*service.Validator](d, 2),
			candlewax.Dep[storage.Storage](d, 3),
			candlewax.Dep[*slog.Logger](d, 4),
		), nil
	})
	return in
}

// ErrorHandler renders failed requests inside the site layout. Server side
// failures are logged with their cause.
func ErrorHandler() candlewax.ErrorHandler {
	pages := view.New()
	return func(c candlewax.Context, err error) error {
		status := candlewax.StatusFor(err)
		if status >= http.StatusInternalServerError {
			c.LogError("request failed", slog.Any("error", err))
		}
		return c.Render(status, pages.ErrorPage(status))
	}
}

// New builds the site's router. Extra options are applied last.
func New(deps Deps, cfg Config, opts ...candlewax.RouterOption) *candlewax.Router {
	var views []view.Option
	if deps.Storage != nil {
		views = append(views, view.WithImageURL(deps.Storage.URL))
	}

	routerOpts := []candlewax.RouterOption{
		candlewax.WithControllers(controller.Specs()...),
		candlewax.WithRoutes(Routes()...),
		candlewax.WithDefaultModule(cfg.DefaultModule),
	}
	if deps.Logger != nil {
		routerOpts = append(routerOpts, candlewax.WithRouterLogger(deps.Logger))
	}
	return candlewax.NewRouter(NewInjector(deps, cfg), view.New(views...).Views(), append(routerOpts, opts...)...)
}

func dependencies(types ...candlewax.TypeID) []candlewax.Dependency {
	deps := make([]candlewax.Dependency, len(types))
	for i, t := range types {
		deps[i] = candlewax.Dependency{Name: string(t), Type: t}
	}
	return deps
}
