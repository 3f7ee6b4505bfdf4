// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
)

// Runner runs one capture cycle.
type Runner interface {
	Run(ctx context.Context, at time.Time) Report
}

type runCycleRequest struct {
	at time.Time
}

// newRunCycleEndpoint detaches the cycle from the request's cancellation so
// a client hanging up cannot leave a cycle half done.
func newRunCycleEndpoint(r Runner) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*runCycleRequest)
		report := r.Run(context.WithoutCancel(ctx), req.at)
		return &report, nil
	}
}
