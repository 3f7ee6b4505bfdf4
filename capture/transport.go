// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/httpaux/erraux"
)

var errBadTimestamp = errors.New("at must be an RFC3339 timestamp")

type Handler http.Handler

// NewRunCycleHandler runs a cycle per request, stamped at ?at= when given.
func NewRunCycleHandler(r Runner) Handler {
	return kithttp.NewServer(
		newRunCycleEndpoint(r),
		decodeRunCycleRequest,
		encodeReport,
		kithttp.ServerErrorEncoder(summary.EncodeError),
	)
}

func decodeRunCycleRequest(_ context.Context, r *http.Request) (interface{}, error) {
	req := &runCycleRequest{}
	if v := r.URL.Query().Get("at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, &erraux.Error{Err: errBadTimestamp, Code: http.StatusBadRequest}
		}
		req.at = at
	}
	return req, nil
}

func encodeReport(_ context.Context, rw http.ResponseWriter, response interface{}) error {
	report, ok := response.(*Report)
	if !ok {
		return summary.ErrCasting
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	rw.Header().Set("Content-Type", "application/json")
	if report.Outcome == Aborted {
		rw.Header().Set(summary.ErrorHeaderKey, report.Error)
		rw.WriteHeader(http.StatusInternalServerError)
	}
	_, err = rw.Write(data)
	return err
}
