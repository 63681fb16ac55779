package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles registration, login and profile routes.
type HTTPController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auth       Authenticator
	ContextKey string
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithHTTPLogger(l Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = l
		return c
	}
}

func WithHTTPRepo(repo RepositoryManager) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Repo = repo
		return c
	}
}

func WithHTTPAuthenticator(auth Authenticator) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Auth = auth
		return c
	}
}

func WithHTTPDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes registers the public auth routes. The profile route needs
// the authentication middleware and is wired by the caller.
func (a *HTTPController) RegisterRoutes(app RouteRegistrar) {
	app.Post("/register", a.RegistrationCreate)
	app.Post("/login", a.LoginPost)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required.Error("The given username must be set"),
			validation.Length(1, 150),
		),
		validation.Field(
			&r.Email,
			validation.Required.Error("The given email must be set"),
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 128),
		),
	)
}

func (a *HTTPController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"detail": "could not parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("register user validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, FormatValidationErrorToMap(err))
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(map[string]any{
			"username": payload.Username,
			"email":    payload.Email,
		}))
	}

	var created *User
	req := RegisterUserMessage{
		Username:  payload.Username,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
		UseHashid: true,
		OnResponse: func(u *User) {
			created = u
		},
	}

	registerUser := RegisterUserHandler{Repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user execute", "error", err)
		return a.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

// LoginRequest payload. Login identifies users by email.
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost verifies credentials and returns a fresh token. Every failure
// shares one response body so the endpoint cannot be used to enumerate
// registered emails.
func (a *HTTPController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"detail": "could not parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("login validate payload", "error", err)
		return a.invalidCredentials(ctx)
	}

	token, err := a.Auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Info("login failed", "email", payload.Email)
		return a.invalidCredentials(ctx)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"email": payload.Email,
		"token": token,
	})
}

// Me returns the public profile of the user resolved by the auth middleware.
func (a *HTTPController) Me(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"detail": ErrTokenNotValid.Message,
		})
	}

	return ctx.JSON(router.StatusOK, user)
}

func (a *HTTPController) invalidCredentials(ctx router.Context) error {
	return ctx.JSON(router.StatusUnauthorized, map[string]string{
		"message": ErrInvalidCredentials.Message,
	})
}

// writeError maps rich errors to field keyed responses where the client can
// act on them, generic bodies otherwise.
func (a *HTTPController) writeError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"detail": "internal server error",
		})
	}

	switch richErr.TextCode {
	case "USERNAME_TAKEN":
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"username": richErr.Message,
		})
	case "EMAIL_TAKEN":
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"email": richErr.Message,
		})
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"detail": richErr.Message,
		})
	}

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]string{
		"detail": richErr.Message,
	})
}

// FormatValidationErrorToMap flattens ozzo field errors into a field keyed
// map suitable for a JSON response.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if fieldErrors, ok := err.(validation.Errors); ok {
		for field, ferr := range fieldErrors {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["detail"] = err.Error()
	return out
}
