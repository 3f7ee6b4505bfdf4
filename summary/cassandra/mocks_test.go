// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/causeway/model"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Load(ctx context.Context) (model.GlobalSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.GlobalSummary), args.Error(1)
}

func (m *mockDB) Save(ctx context.Context, doc model.GlobalSummary) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDB) Close() {
	m.Called()
}

func (m *mockDB) Ping() error {
	args := m.Called()
	return args.Error(0)
}
