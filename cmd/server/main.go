package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	"github.com/venlabs/todo-api/auth"
	"github.com/venlabs/todo-api/config"
	"github.com/venlabs/todo-api/database"
	"github.com/venlabs/todo-api/middleware/jwtware"
	"github.com/venlabs/todo-api/todos"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auther *auth.Auther
	repo   auth.RepositoryManager
	todos  todos.Repository
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("todo-api"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	WithHTTPServer(app)

	addr := app.Config().GetServer().GetAddr()
	app.GetLogger("app").Info("listening", "addr", addr)
	app.srv.Serve(addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := database.Open(app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = auth.NewRepositoryManager(db)
	app.todos = todos.NewRepository(db)

	return app.repo.Validate()
}

type userStoreAdapter struct {
	users auth.Users
}

func (a userStoreAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func WithAuth(_ context.Context, app *App) error {
	userProvider := auth.NewUserProvider(userStoreAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	auther := auth.NewAuthenticator(userProvider, app.Config().GetAuth())
	auther.WithLogger(app.GetLogger("auth:authn"))

	app.auther = auther

	return nil
}

func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       app.Config().GetApp().Name,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	r := srv.Router()

	authCtrl := auth.NewHTTPController(
		auth.WithHTTPLogger(app.GetLogger("auth:ctrl")),
		auth.WithHTTPRepo(app.repo),
		auth.WithHTTPAuthenticator(app.auther),
	)
	authCtrl.RegisterRoutes(r)

	authCfg := app.Config().GetAuth()
	protected := jwtware.New(jwtware.Config{
		TokenValidator: app.auther.TokenService(),
		UserResolver: func(ctx context.Context, username string) (*auth.User, error) {
			return app.repo.Users().GetByIdentifier(ctx, username)
		},
		ContextKey:  authCfg.GetContextKey(),
		TokenLookup: authCfg.GetTokenLookup(),
		AuthScheme:  authCfg.GetAuthScheme(),
	})

	r.Get("/me", authCtrl.Me, protected)

	todosCtrl := todos.NewHTTPController(
		todos.WithHTTPLogger(app.GetLogger("todos:ctrl")),
		todos.WithRepository(app.todos),
		todos.WithContextKey(authCfg.GetContextKey()),
	)
	todosCtrl.RegisterRoutes(r, protected)

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
