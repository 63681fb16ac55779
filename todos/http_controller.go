package todos

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/venlabs/todo-api/auth"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController serves the todo CRUD routes. Every route reads the
// authenticated user from the request context, so it must sit behind the
// auth middleware.
type HTTPController struct {
	Logger     auth.Logger
	Repo       Repository
	ContextKey string
}

// HTTPControllerOption configures the controller.
type HTTPControllerOption func(*HTTPController)

// WithHTTPLogger sets the controller logger.
func WithHTTPLogger(logger auth.Logger) HTTPControllerOption {
	return func(c *HTTPController) {
		c.Logger = logger
	}
}

// WithRepository sets the todos repository.
func WithRepository(repo Repository) HTTPControllerOption {
	return func(c *HTTPController) {
		c.Repo = repo
	}
}

// WithContextKey sets the locals key holding the authenticated user.
func WithContextKey(key string) HTTPControllerOption {
	return func(c *HTTPController) {
		c.ContextKey = key
	}
}

// NewHTTPController creates a todos controller, panics on missing repository.
func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		ContextKey: "user",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.Repo == nil {
		panic("todos controller requires a repository")
	}

	return c
}

// RegisterRoutes mounts the CRUD routes, guarded by the given middleware.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar, mw ...router.MiddlewareFunc) {
	group.Get("/todos", c.List, mw...)
	group.Post("/todos", c.Create, mw...)
	group.Get("/todos/:id", c.Show, mw...)
	group.Patch("/todos/:id", c.Update, mw...)
	group.Delete("/todos/:id", c.Remove, mw...)
}

// ListResponse is the paginated listing envelope.
type ListResponse struct {
	Count   int     `json:"count"`
	Results []*Todo `json:"results"`
}

// CreateRequest is the payload for creating a todo.
type CreateRequest struct {
	Title      string `json:"title"`
	Desc       string `json:"desc"`
	IsComplete bool   `json:"is_complete"`
}

// Validate implements validation.Validatable.
func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("This field is required."),
			validation.Length(1, 255),
		),
	)
}

// List returns the caller's todos, filtered, ordered, and paginated.
func (c *HTTPController) List(ctx router.Context) error {
	user, ok := auth.UserFromRouterContext(ctx, c.ContextKey)
	if !ok {
		return c.unauthorized(ctx)
	}

	params, err := listParamsFromQuery(ctx.Queries())
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"detail": err.Error(),
		})
	}

	records, count, err := c.Repo.List(ctx.Context(), user.ID, params)
	if err != nil {
		return c.writeError(ctx, err)
	}

	if records == nil {
		records = []*Todo{}
	}

	return ctx.JSON(router.StatusOK, ListResponse{
		Count:   count,
		Results: records,
	})
}

// Create stores a new todo owned by the caller.
func (c *HTTPController) Create(ctx router.Context) error {
	user, ok := auth.UserFromRouterContext(ctx, c.ContextKey)
	if !ok {
		return c.unauthorized(ctx)
	}

	payload := CreateRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"detail": "Invalid request payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, auth.FormatValidationErrorToMap(err))
	}

	record := &Todo{
		Title:      payload.Title,
		Desc:       payload.Desc,
		IsComplete: payload.IsComplete,
		OwnerID:    user.ID,
	}

	record, err := c.Repo.Create(ctx.Context(), record)
	if err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

// Show returns a single todo owned by the caller.
func (c *HTTPController) Show(ctx router.Context) error {
	user, ok := auth.UserFromRouterContext(ctx, c.ContextKey)
	if !ok {
		return c.unauthorized(ctx)
	}

	id, err := todoID(ctx)
	if err != nil {
		return c.notFound(ctx)
	}

	record, err := c.Repo.GetByID(ctx.Context(), user.ID, id)
	if err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// Update applies a partial update to a todo owned by the caller.
func (c *HTTPController) Update(ctx router.Context) error {
	user, ok := auth.UserFromRouterContext(ctx, c.ContextKey)
	if !ok {
		return c.unauthorized(ctx)
	}

	id, err := todoID(ctx)
	if err != nil {
		return c.notFound(ctx)
	}

	payload := UpdateParams{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"detail": "Invalid request payload",
		})
	}

	if payload.Title != nil {
		if err := validation.Validate(*payload.Title,
			validation.Required.Error("This field is required."),
			validation.Length(1, 255),
		); err != nil {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"title": err.Error(),
			})
		}
	}

	record, err := c.Repo.Update(ctx.Context(), user.ID, id, payload)
	if err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// Remove deletes a todo owned by the caller.
func (c *HTTPController) Remove(ctx router.Context) error {
	user, ok := auth.UserFromRouterContext(ctx, c.ContextKey)
	if !ok {
		return c.unauthorized(ctx)
	}

	id, err := todoID(ctx)
	if err != nil {
		return c.notFound(ctx)
	}

	if err := c.Repo.Delete(ctx.Context(), user.ID, id); err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.Status(router.StatusNoContent).SendString("")
}

func (c *HTTPController) unauthorized(ctx router.Context) error {
	return ctx.JSON(router.StatusUnauthorized, map[string]string{
		"detail": "Authentication credentials were not provided",
	})
}

func (c *HTTPController) notFound(ctx router.Context) error {
	return ctx.JSON(router.StatusNotFound, map[string]string{
		"detail": "Not found.",
	})
}

func (c *HTTPController) writeError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		switch richErr.Category {
		case errors.CategoryNotFound:
			return c.notFound(ctx)
		case errors.CategoryBadInput, errors.CategoryValidation:
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"detail": richErr.Message,
			})
		}
	}

	if c.Logger != nil {
		c.Logger.Error("todos request failed", "error", err)
	}

	return ctx.JSON(router.StatusInternalServerError, map[string]string{
		"detail": "Internal server error",
	})
}

func todoID(ctx router.Context) (int64, error) {
	raw := ctx.Param("id")
	return strconv.ParseInt(raw, 10, 64)
}

// listParamsFromQuery decodes filtering, search, ordering, and pagination
// from the request query string.
func listParamsFromQuery(query map[string]string) (ListParams, error) {
	params := ListParams{}

	if raw := query["id"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, errors.New("id must be an integer", errors.CategoryBadInput)
		}
		params.ID = &id
	}

	if raw, ok := query["title"]; ok && raw != "" {
		params.Title = &raw
	}

	if raw, ok := query["desc"]; ok && raw != "" {
		params.Desc = &raw
	}

	if raw := query["is_complete"]; raw != "" {
		val, err := parseBoolParam(raw)
		if err != nil {
			return params, errors.New("is_complete must be a boolean", errors.CategoryBadInput)
		}
		params.IsComplete = &val
	}

	params.Search = query["search"]

	if raw := query["ordering"]; raw != "" {
		params.Ordering = strings.Split(raw, ",")
	}

	if raw := query["page"]; raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, errors.New("page must be a positive integer", errors.CategoryBadInput)
		}
		params.Page = page
	}

	if raw := query["page_size"]; raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return params, errors.New("page_size must be a positive integer", errors.CategoryBadInput)
		}
		params.PageSize = size
	}

	return params, nil
}

func parseBoolParam(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, errors.New("invalid boolean", errors.CategoryBadInput)
}
