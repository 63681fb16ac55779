package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// BaseConfig is the application configuration root. Values come from
// config/app.json and can be overridden through the loader's env and
// flag providers.
type BaseConfig struct {
	App         App         `json:"app"`
	Server      Server      `json:"server"`
	Auth        Auth        `json:"auth"`
	Persistence Persistence `json:"persistence"`
}

// App carries application identity values.
type App struct {
	Name string `json:"name"`
	Env  string `json:"env"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `json:"addr"`
}

// Auth configures token signing and the middleware token lookup.
type Auth struct {
	SigningKey           string `json:"signing_key"`
	SigningMethod        string `json:"signing_method"`
	ContextKey           string `json:"context_key"`
	TokenExpirationHours int    `json:"token_expiration"`
	TokenLookup          string `json:"token_lookup"`
	AuthScheme           string `json:"auth_scheme"`
	Issuer               string `json:"issuer"`
}

// Persistence holds database connection settings.
type Persistence struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Validate implements the loader's validation hook.
func (c *BaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Persistence),
	)
}

// Validate checks the listener address is set.
func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
	)
}

// Validate checks token signing settings.
func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&a.TokenExpirationHours, validation.Min(1)),
	)
}

// Validate checks the database settings.
func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DSN, validation.Required),
	)
}

func (c *BaseConfig) GetApp() App {
	return c.App
}

func (c *BaseConfig) GetServer() Server {
	return c.Server
}

func (c *BaseConfig) GetAuth() Auth {
	return c.Auth
}

func (c *BaseConfig) GetPersistence() Persistence {
	return c.Persistence
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":8080"
	}
	return s.Addr
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	if a.TokenExpirationHours == 0 {
		return 72
	}
	return a.TokenExpirationHours
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "todo-api"
	}
	return a.Issuer
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file:todos.db?cache=shared"
	}
	return p.DSN
}
