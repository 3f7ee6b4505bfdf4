// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/causeway/model"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) Load(ctx context.Context) (model.GlobalSummary, *types.ConsumedCapacity, error) {
	args := m.Called(ctx)
	cc, _ := args.Get(1).(*types.ConsumedCapacity)
	return args.Get(0).(model.GlobalSummary), cc, args.Error(2)
}

func (m *mockService) Save(ctx context.Context, doc model.GlobalSummary) (*types.ConsumedCapacity, error) {
	args := m.Called(ctx, doc)
	cc, _ := args.Get(0).(*types.ConsumedCapacity)
	return cc, args.Error(1)
}
