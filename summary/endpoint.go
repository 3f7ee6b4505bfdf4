// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/xmidt-org/causeway/model"
)

// Service is the part of the Aggregator exposed over HTTP.
type Service interface {
	Snapshot() model.GlobalSummary
	Rebuild(ctx context.Context) (model.GlobalSummary, error)
}

type getSummaryRequest struct {
	recentOnly bool
}

func newGetSummaryEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*getSummaryRequest)
		doc := s.Snapshot()
		if r.recentOnly {
			doc.Days = nil
		}
		return &doc, nil
	}
}

func newRebuildEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		doc, err := s.Rebuild(ctx)
		if err != nil {
			return nil, err
		}
		return &doc, nil
	}
}
