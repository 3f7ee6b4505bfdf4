// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"errors"

	"github.com/xmidt-org/causeway/summary"
)

// isExpected reports errors that are answers rather than query failures.
func isExpected(err error) bool {
	return errors.Is(err, summary.ErrNotFound) || errors.Is(err, summary.ErrVersionConflict)
}
