// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xmidt-org/causeway/model"
)

var ErrNoImageURL = errors.New("no image url configured for camera")

const idPlaceholder = "{id}"

// Link is where the current image of a camera can be downloaded from.
type Link struct {
	URL       string
	Location  string
	Latitude  float64
	Longitude float64
}

// Resolver maps a camera to its current image link. Errors that are
// *model.Failure keep their reason, anything else is a network_error.
type Resolver interface {
	Resolve(ctx context.Context, camera model.CameraSpec) (Link, error)
}

// StaticResolver serves links that never change: the camera's own URL, or the
// template with the camera id substituted.
type StaticResolver struct {
	Template string
}

func (s StaticResolver) Resolve(_ context.Context, camera model.CameraSpec) (Link, error) {
	if camera.URL != "" {
		return Link{URL: camera.URL}, nil
	}
	if s.Template == "" {
		return Link{}, fmt.Errorf("%w: %d", ErrNoImageURL, camera.ID)
	}
	return Link{URL: strings.ReplaceAll(s.Template, idPlaceholder, strconv.Itoa(camera.ID))}, nil
}
