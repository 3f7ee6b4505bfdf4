// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/spf13/cast"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/httpaux/erraux"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// ErrorHeaderKey carries the error message of a failed request.
const ErrorHeaderKey = "X-Causeway-Error"

// ErrCasting indicates there was a middleware wiring mistake with the go-kit style
// encoders.
var ErrCasting = errors.New("casting error due to middleware wiring mistake")

type Handler http.Handler

// NewGetSummaryHandler serves the last committed summary. ?recent=true leaves
// out the full day ledger.
func NewGetSummaryHandler(s Service) Handler {
	return kithttp.NewServer(
		newGetSummaryEndpoint(s),
		decodeGetSummaryRequest,
		EncodeSummaryResponse,
		kithttp.ServerErrorEncoder(EncodeError),
	)
}

// NewRebuildHandler replays the archive into the summary.
func NewRebuildHandler(s Service) Handler {
	return kithttp.NewServer(
		newRebuildEndpoint(s),
		kithttp.NopRequestDecoder,
		EncodeSummaryResponse,
		kithttp.ServerErrorEncoder(EncodeError),
	)
}

func decodeGetSummaryRequest(_ context.Context, r *http.Request) (interface{}, error) {
	req := &getSummaryRequest{}
	if v := r.URL.Query().Get("recent"); v != "" {
		recent, err := cast.ToBoolE(v)
		if err != nil {
			return nil, &erraux.Error{Err: errors.New("recent must be a boolean"), Code: http.StatusBadRequest}
		}
		req.recentOnly = recent
	}
	return req, nil
}

func EncodeSummaryResponse(ctx context.Context, rw http.ResponseWriter, response interface{}) error {
	doc, ok := response.(*model.GlobalSummary)
	if !ok {
		return ErrCasting
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	rw.Header().Set("Content-Type", "application/json")
	_, err = rw.Write(data)
	return err
}

// EncodeError writes err with the status it carries, or 500.
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	sallust.Get(ctx).Debug("request failed", zap.Error(err))
	w.Header().Set(ErrorHeaderKey, err.Error())
	var headerer kithttp.Headerer
	if errors.As(err, &headerer) {
		for k, values := range headerer.Headers() {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
	}
	code := http.StatusInternalServerError
	var sc kithttp.StatusCoder
	if errors.As(err, &sc) {
		code = sc.StatusCode()
	} else if errors.Is(err, ErrVersionConflict) {
		code = http.StatusConflict
	}
	w.WriteHeader(code)
}
