package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

// appJWTConfig is the default JWT auth middleware config. Tokens are issued
// by the separate auth service; this API only verifies them and maps claims
// to the acting org.Actor.
var appJWTConfig = middleware.JWTConfig{
	SigningKey:    core.Conf.SecretKey,
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "actorToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Role     string   `json:"role,omitempty"`
	ScopeIDs []string `json:"scope_ids,omitempty"`
}

// NewActorClaims builds the claims for an actor; used by tests and tooling.
func NewActorClaims(actor org.Actor, username string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   actor.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: username,
		Role:     actor.Role,
		ScopeIDs: actor.ScopeIDs,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)
	return token.SignedString(appJWTConfig.SigningKey.([]byte))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextActor maps the verified claims to the acting org.Actor.
func getContextActor(ctx echo.Context) (org.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return org.Actor{}, err
	}
	return org.Actor{
		ID:       claims.Subject,
		Role:     claims.Role,
		ScopeIDs: claims.ScopeIDs,
	}, nil
}
