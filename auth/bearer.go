// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"emperror.dev/emperror"
	"github.com/golang-jwt/jwt"
	"github.com/xmidt-org/bascule"
	"github.com/xmidt-org/bascule/key"
)

const (
	jwtPrincipalKey = "sub"
	defaultKeyID    = "current"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnexpectedClaims = errors.New("claims were not the expected type")
	ErrInvalidPrincipal = errors.New("invalid principal")
	ErrUnknownKey       = errors.New("unknown signing key")
	ErrUnexpectedMethod = errors.New("unexpected signing method")
)

// BearerConfig describes the HMAC keys used to sign bearer tokens.
type BearerConfig struct {
	// Keys maps a kid header value to its shared secret.
	Keys map[string]string

	// DefaultKeyID is used for tokens without a kid header.
	// (Optional) Defaults to current.
	DefaultKeyID string

	// Leeway is the clock skew, in seconds, tolerated on exp, nbf and iat.
	Leeway bascule.Leeway
}

// secretResolver resolves kid values to shared HMAC secrets.
type secretResolver map[string]key.Pair

func newSecretResolver(keys map[string]string) secretResolver {
	r := make(secretResolver, len(keys))
	for kid, secret := range keys {
		r[kid] = secretPair([]byte(secret))
	}
	return r
}

func (r secretResolver) ResolveKey(_ context.Context, keyID string) (key.Pair, error) {
	pair, ok := r[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, keyID)
	}
	return pair, nil
}

// secretPair is a verify-only key.Pair over a shared secret.
type secretPair []byte

func (p secretPair) Purpose() key.Purpose { return key.PurposeVerify }
func (p secretPair) Public() interface{}  { return []byte(p) }
func (p secretPair) HasPrivate() bool     { return false }
func (p secretPair) Private() interface{} { return nil }

// accessLevelBearerTokenFactory parses HMAC signed jwts and injects the
// resolved access level as a token attribute.
type accessLevelBearerTokenFactory struct {
	DefaultKeyID string
	Resolver     key.Resolver
	Parser       bascule.JWTParser
	Leeway       bascule.Leeway
	AccessLevel  AccessLevel
}

func newBearerTokenFactory(config BearerConfig, accessLevel AccessLevel) accessLevelBearerTokenFactory {
	if config.DefaultKeyID == "" {
		config.DefaultKeyID = defaultKeyID
	}
	return accessLevelBearerTokenFactory{
		DefaultKeyID: config.DefaultKeyID,
		Resolver:     newSecretResolver(config.Keys),
		Parser:       bascule.DefaultJWTParser,
		Leeway:       config.Leeway,
		AccessLevel:  accessLevel,
	}
}

// ParseAndValidate expects the given value to be a jwt whose kid, or the
// default key id, resolves to one of the configured secrets.  If everything
// checks out a Token of type "jwt" is returned.
func (a accessLevelBearerTokenFactory) ParseAndValidate(ctx context.Context, _ *http.Request, _ bascule.Authorization, value string) (bascule.Token, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidToken)
	}

	leewayclaims := bascule.ClaimsWithLeeway{
		MapClaims: make(jwt.MapClaims),
		Leeway:    a.Leeway,
	}

	jwsToken, err := a.Parser.ParseJWT(value, &leewayclaims, hmacKeyfunc(ctx, a.DefaultKeyID, a.Resolver))
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && errors.Is(ve.Inner, ErrUnknownKey) {
			return nil, ve.Inner
		}
		return nil, emperror.Wrap(fmt.Errorf("%w: %v", ErrInvalidToken, err), "failed to parse JWS")
	}
	if !jwsToken.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := jwsToken.Claims.(*bascule.ClaimsWithLeeway)
	if !ok {
		return nil, emperror.Wrap(ErrUnexpectedClaims, "failed to parse JWS")
	}

	claimsMap, err := claims.GetMap()
	if err != nil {
		return nil, emperror.WrapWith(err, "failed to get map of claims", "claims struct", claims)
	}

	jwtClaims := bascule.NewAttributes(claimsMap)

	principalVal, ok := jwtClaims.Get(jwtPrincipalKey)
	if !ok {
		return nil, emperror.WrapWith(ErrInvalidPrincipal, "principal value not found", "principal key", jwtPrincipalKey)
	}
	principal, ok := principalVal.(string)
	if !ok || principal == "" {
		return nil, emperror.WrapWith(ErrInvalidPrincipal, "principal value not a string", "principal", principalVal)
	}

	if a.AccessLevel.Resolve != nil {
		claimsMap[a.AccessLevel.AttributeKey] = a.AccessLevel.Resolve(jwtClaims)
		jwtClaims = bascule.NewAttributes(claimsMap)
	}

	return bascule.NewToken("jwt", principal, jwtClaims), nil
}

func hmacKeyfunc(ctx context.Context, defaultKeyID string, keyResolver key.Resolver) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedMethod, token.Header["alg"])
		}

		keyID, ok := token.Header["kid"].(string)
		if !ok {
			keyID = defaultKeyID
		}

		pair, err := keyResolver.ResolveKey(ctx, keyID)
		if err != nil {
			return nil, err
		}
		return pair.Public(), nil
	}
}
