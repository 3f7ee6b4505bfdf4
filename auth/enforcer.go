// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cast"
	"github.com/xmidt-org/bascule"
	"github.com/xmidt-org/bascule/basculehttp"
)

// Authorization schemes understood by the chain.
const (
	BasicAuthorization  = "Basic"
	BearerAuthorization = "Bearer"
)

var (
	ErrMissingAuthentication = errors.New("no authentication found in context")
	ErrInsufficientAccess    = errors.New("insufficient access level")
)

// newEnforcer lets Basic users through and requires Bearer tokens to carry a
// principal and elevated access for any method that changes state.
func newEnforcer(accessLevel AccessLevel, onError basculehttp.OnErrorResponse) func(http.Handler) http.Handler {
	return basculehttp.NewEnforcer(
		basculehttp.WithRules(BasicAuthorization, bascule.CreateAllowAllCheck()),
		basculehttp.WithRules(BearerAuthorization, bascule.Validators{
			bascule.CreateNonEmptyPrincipalCheck(),
			bascule.CreateValidTypeCheck([]string{"jwt"}),
			accessLevelCheck(accessLevel.AttributeKey),
		}),
		basculehttp.WithEErrorResponseFunc(onError),
	)
}

func accessLevelCheck(attributeKey string) bascule.ValidatorFunc {
	return func(ctx context.Context, token bascule.Token) error {
		auth, ok := bascule.FromContext(ctx)
		if !ok {
			return ErrMissingAuthentication
		}
		if readOnly(auth.Request.Method) {
			return nil
		}
		level, _ := token.Attributes().Get(attributeKey)
		if cast.ToInt(level) < ElevatedAccessLevelAttributeValue {
			return ErrInsufficientAccess
		}
		return nil
	}
}

func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
