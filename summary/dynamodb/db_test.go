// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/db/metric"
	"github.com/xmidt-org/causeway/summary/summarytest"
)

func TestDynamoClient(t *testing.T) {
	ctx := context.Background()
	errTimeout := errors.New("timeout")

	tcs := []struct {
		Description     string
		Load            bool
		Err             error
		ExpectedSuccess float64
		ExpectedFailure float64
	}{
		{
			Description:     "Load",
			Load:            true,
			ExpectedSuccess: 1,
		},
		{
			Description:     "Load not found",
			Load:            true,
			Err:             summary.ErrNotFound,
			ExpectedSuccess: 1,
		},
		{
			Description:     "Load failure",
			Load:            true,
			Err:             errTimeout,
			ExpectedFailure: 1,
		},
		{
			Description:     "Save",
			ExpectedSuccess: 1,
		},
		{
			Description:     "Save conflict",
			Err:             fmt.Errorf("%w: lost", summary.ErrVersionConflict),
			ExpectedSuccess: 1,
		},
		{
			Description:     "Save failure",
			Err:             errTimeout,
			ExpectedFailure: 1,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			m := new(mockService)
			vecs := metric.NewUnregisteredVecs()
			d := newDynamoClient(m, metric.NewMeasures(vecs))

			var err error
			queryType := summary.WriteType
			if tc.Load {
				queryType = summary.ReadType
				m.On("Load", ctx).Return(model.GlobalSummary{}, testConsumedCapacity, tc.Err).Once()
				_, err = d.Load(ctx)
			} else {
				doc := summarytest.Document(2)
				m.On("Save", ctx, doc).Return(testConsumedCapacity, tc.Err).Once()
				err = d.Save(ctx, doc)
			}

			assert.ErrorIs(err, tc.Err)
			assert.Equal(tc.ExpectedSuccess, testutil.ToFloat64(vecs.QuerySuccessCount.WithLabelValues(queryType)))
			assert.Equal(tc.ExpectedFailure, testutil.ToFloat64(vecs.QueryFailureCount.WithLabelValues(queryType)))
			assert.Equal(1.0, testutil.ToFloat64(vecs.CapacityUnitConsumedCount.WithLabelValues(queryType)))
			assert.Zero(testutil.CollectAndCount(vecs.ReadCapacityUnitConsumedCount))
			m.AssertExpectations(t)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	assert := assert.New(t)
	config := validateConfig(Config{})
	assert.Equal(defaultTable, config.Table)
	assert.Equal(defaultKey, config.Key)
	assert.Equal(defaultMaxRetries, config.MaxRetries)

	config = validateConfig(Config{Table: "t", Key: "k", MaxRetries: 9})
	assert.Equal(Config{Table: "t", Key: "k", MaxRetries: 9}, config)
}
