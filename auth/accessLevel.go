// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"github.com/spf13/cast"
	"github.com/xmidt-org/bascule"
)

// Access level values injected into jwt attributes.
const (
	DefaultAccessLevelAttributeKey   = "access-level"
	DefaultAccessLevelAttributeValue = 0

	// ElevatedAccessLevelAttributeValue lets a request trigger cycles and rebuilds.
	ElevatedAccessLevelAttributeValue = 1
)

const defaultOperatorCapability = "causeway:svc:operator"

var defaultCapabilityPath = []string{"capabilities"}

// AccessLevelConfig names the capability that grants elevated access.
type AccessLevelConfig struct {
	// AttributeKey is the token attribute the resolved level is stored under.
	// (Optional) Defaults to access-level.
	AttributeKey string

	// Capability is searched for in the capability list found at Path.
	// (Optional) Defaults to causeway:svc:operator.
	Capability string

	// Path is the list of nested claim keys leading to the capability list.
	// (Optional) Defaults to ["capabilities"].
	Path []string
}

// AccessLevel resolves the access level of a request from its bascule
// attributes.
type AccessLevel struct {
	Resolve      func(bascule.Attributes) int
	AttributeKey string
}

func validateAccessLevelConfig(config *AccessLevelConfig) {
	if len(config.AttributeKey) < 1 {
		config.AttributeKey = DefaultAccessLevelAttributeKey
	}
	if len(config.Capability) < 1 {
		config.Capability = defaultOperatorCapability
	}
	if len(config.Path) < 1 {
		config.Path = defaultCapabilityPath
	}
}

// NewAccessLevel grants ElevatedAccessLevelAttributeValue to attributes
// listing the configured capability.
func NewAccessLevel(config AccessLevelConfig) AccessLevel {
	validateAccessLevelConfig(&config)
	return AccessLevel{
		AttributeKey: config.AttributeKey,
		Resolve: func(attributes bascule.Attributes) int {
			claim, ok := bascule.GetNestedAttribute(attributes, config.Path...)
			if !ok {
				return DefaultAccessLevelAttributeValue
			}
			for _, capability := range cast.ToStringSlice(claim) {
				if capability == config.Capability {
					return ElevatedAccessLevelAttributeValue
				}
			}
			return DefaultAccessLevelAttributeValue
		},
	}
}
