// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/summarytest"
)

var testConsumedCapacity = &types.ConsumedCapacity{
	CapacityUnits: aws.Float64(1),
}

func storedItem(t *testing.T, version int64, document string) map[string]types.AttributeValue {
	av, err := attributevalue.MarshalMap(storedSummary{
		ID:       defaultKey,
		Version:  version,
		Document: document,
	})
	require.NoError(t, err)
	return av
}

func TestLoad(t *testing.T) {
	doc := summarytest.Document(3)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	errTimeout := errors.New("timeout")

	tcs := []struct {
		Description     string
		Output          *dynamodb.GetItemOutput
		Err             error
		ExpectedErr     error
		ExpectedVersion int64
	}{
		{
			Description:     "Success",
			Output:          &dynamodb.GetItemOutput{Item: storedItem(t, 3, string(data)), ConsumedCapacity: testConsumedCapacity},
			ExpectedVersion: 3,
		},
		{
			Description: "Not found",
			Output:      &dynamodb.GetItemOutput{ConsumedCapacity: testConsumedCapacity},
			ExpectedErr: summary.ErrNotFound,
		},
		{
			Description:     "Corrupt document",
			Output:          &dynamodb.GetItemOutput{Item: storedItem(t, 6, "{"), ConsumedCapacity: testConsumedCapacity},
			ExpectedErr:     summary.ErrCorrupt,
			ExpectedVersion: 6,
		},
		{
			Description: "Corrupt item",
			Output: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				idAttributeKey:      &types.AttributeValueMemberS{Value: defaultKey},
				versionAttributeKey: &types.AttributeValueMemberS{Value: "seven"},
			}},
			ExpectedErr: summary.ErrCorrupt,
		},
		{
			Description: "Client failure",
			Err:         errTimeout,
			ExpectedErr: errTimeout,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			m := new(mockClient)
			m.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
				key, ok := in.Key[idAttributeKey].(*types.AttributeValueMemberS)
				return ok && key.Value == defaultKey && *in.TableName == defaultTable && *in.ConsistentRead
			})).Return(tc.Output, tc.Err).Once()

			e := &executor{c: m, tableName: defaultTable, key: defaultKey}
			got, cc, err := e.Load(context.Background())
			if tc.ExpectedErr != nil {
				assert.ErrorIs(err, tc.ExpectedErr)
			} else {
				assert.NoError(err)
				summarytest.AssertSame(t, doc, got)
			}
			assert.Equal(tc.ExpectedVersion, got.Version)
			if tc.Output != nil {
				assert.Equal(tc.Output.ConsumedCapacity, cc)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestSave(t *testing.T) {
	errTimeout := errors.New("timeout")
	tcs := []struct {
		Description       string
		Version           int64
		Err               error
		ExpectedCondition string
		ExpectedPrevious  string
		ExpectedErr       error
	}{
		{
			Description:       "First version",
			Version:           1,
			ExpectedCondition: "attribute_not_exists(#v)",
		},
		{
			Description:       "Later version",
			Version:           12,
			ExpectedCondition: "#v = :previous",
			ExpectedPrevious:  "11",
		},
		{
			Description:       "Conflict",
			Version:           12,
			Err:               &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")},
			ExpectedCondition: "#v = :previous",
			ExpectedPrevious:  "11",
			ExpectedErr:       summary.ErrVersionConflict,
		},
		{
			Description:       "Client failure",
			Version:           1,
			Err:               errTimeout,
			ExpectedCondition: "attribute_not_exists(#v)",
			ExpectedErr:       errTimeout,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			m := new(mockClient)
			var captured *dynamodb.PutItemInput
			m.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				captured = args.Get(1).(*dynamodb.PutItemInput)
			}).Return(&dynamodb.PutItemOutput{ConsumedCapacity: testConsumedCapacity}, tc.Err).Once()

			e := &executor{c: m, tableName: defaultTable, key: defaultKey}
			cc, err := e.Save(context.Background(), summarytest.Document(tc.Version))
			if tc.ExpectedErr != nil {
				assert.ErrorIs(err, tc.ExpectedErr)
			} else {
				assert.NoError(err)
			}
			assert.Equal(testConsumedCapacity, cc)

			require.NotNil(t, captured)
			assert.Equal(tc.ExpectedCondition, *captured.ConditionExpression)
			if tc.ExpectedPrevious != "" {
				previous, ok := captured.ExpressionAttributeValues[":previous"].(*types.AttributeValueMemberN)
				require.True(t, ok)
				assert.Equal(tc.ExpectedPrevious, previous.Value)
			} else {
				assert.Empty(captured.ExpressionAttributeValues)
			}

			var item storedSummary
			require.NoError(t, attributevalue.UnmarshalMap(captured.Item, &item))
			assert.Equal(defaultKey, item.ID)
			assert.Equal(tc.Version, item.Version)
			m.AssertExpectations(t)
		})
	}
}

func TestSaveOverUnreadableItem(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := new(mockClient)
	m.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		idAttributeKey:      &types.AttributeValueMemberS{Value: defaultKey},
		versionAttributeKey: &types.AttributeValueMemberS{Value: "seven"},
	}}, nil).Once()

	var inputs []*dynamodb.PutItemInput
	m.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inputs = append(inputs, args.Get(1).(*dynamodb.PutItemInput))
	}).Return(&dynamodb.PutItemOutput{}, nil).Twice()

	e := &executor{c: m, tableName: defaultTable, key: defaultKey}
	got, _, err := e.Load(context.Background())
	assert.ErrorIs(err, summary.ErrCorrupt)
	assert.Zero(got.Version)

	// the rebuilt document replaces the unreadable item
	_, err = e.Save(context.Background(), summarytest.Document(1))
	require.NoError(err)
	require.Len(inputs, 1)
	assert.Nil(inputs[0].ConditionExpression)
	assert.Empty(inputs[0].ExpressionAttributeNames)

	// later first-version saves are conditional again
	_, err = e.Save(context.Background(), summarytest.Document(1))
	require.NoError(err)
	require.Len(inputs, 2)
	require.NotNil(inputs[1].ConditionExpression)
	assert.Equal("attribute_not_exists(#v)", *inputs[1].ConditionExpression)
	m.AssertExpectations(t)
}
