package jwtware

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/venlabs/todo-api/auth"
)

var defaultTokenLookup = "header:" + router.HeaderAuthorization

// TokenValidator validates a raw token and returns its claims. Mirrors
// auth.TokenService.Validate so the middleware stays decoupled from the
// signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (auth.AuthClaims, error)
}

// UserResolver maps a verified username to a live user record.
type UserResolver func(ctx context.Context, username string) (*auth.User, error)

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(router.Context) bool

	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// UserResolver is required. It resolves the username embedded in a
	// verified token to the credential store record.
	UserResolver UserResolver

	// ContextKey is the locals key for the resolved user. Default "user".
	ContextKey string

	// TokenKey is the locals key for the raw presented token. Default "token".
	TokenKey string

	// TokenLookup is a comma separated list of "<source>:<name>" entries.
	// Default "header:Authorization".
	TokenLookup string

	// AuthScheme expected before the token. Default "Bearer".
	AuthScheme string
}

// New returns a middleware that authenticates every request it covers.
// Failure at any step aborts with no user resolved; there is no anonymous
// fallthrough.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, auth.ErrTokenNotValid)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				if auth.IsTokenExpiredError(err) {
					return cfg.ErrorHandler(ctx, auth.ErrTokenExpired)
				}
				return cfg.ErrorHandler(ctx, auth.ErrTokenInvalid)
			}

			user, err := cfg.UserResolver(ctx.Context(), claims.Username())
			if err != nil || user == nil {
				return cfg.ErrorHandler(ctx, auth.ErrUserNotFound)
			}

			ctx.Locals(cfg.ContextKey, user)
			ctx.Locals(cfg.TokenKey, raw)

			stdCtx := auth.WithContext(ctx.Context(), user)
			stdCtx = auth.WithTokenContext(stdCtx, raw)
			ctx.SetContext(stdCtx)

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			var richErr *errors.Error
			if !errors.As(err, &richErr) {
				richErr = auth.ErrTokenNotValid
			}
			return c.JSON(router.StatusUnauthorized, map[string]string{
				"detail": richErr.Message,
			})
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.UserResolver == nil {
		panic("AUTH: JWT middleware configuration: UserResolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenKey == "" {
		cfg.TokenKey = "token"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts the token from the request
// header. The value must be exactly "<scheme> <token>": one space, two
// parts, matching scheme. Anything else is not a valid credential.
func jwtFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		value := c.GetString(header, "")
		if value == "" {
			return "", auth.ErrTokenNotValid
		}

		parts := strings.Split(value, " ")
		if len(parts) != 2 {
			return "", auth.ErrTokenNotValid
		}

		if !strings.EqualFold(parts[0], strings.TrimSpace(authScheme)) {
			return "", auth.ErrTokenNotValid
		}

		if parts[1] == "" {
			return "", auth.ErrTokenNotValid
		}

		return parts[1], nil
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", auth.ErrTokenNotValid
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", auth.ErrTokenNotValid
		}
		return token, nil
	}
}
