// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	datypes "github.com/evstack/near-da/pkg/da/types"
)

// NewMockDataAvailability creates a new instance of MockDataAvailability.
// It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockDataAvailability(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDataAvailability {
	m := &MockDataAvailability{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockDataAvailability is a mock of datypes.DataAvailability.
type MockDataAvailability struct {
	mock.Mock
}

var _ datypes.DataAvailability = (*MockDataAvailability)(nil)

// Submit implements datypes.DataAvailability.
func (m *MockDataAvailability) Submit(ctx context.Context, blobs []datypes.Blob) (datypes.SubmitResult, error) {
	args := m.Called(ctx, blobs)
	return args.Get(0).(datypes.SubmitResult), args.Error(1)
}

// Get implements datypes.DataAvailability.
func (m *MockDataAvailability) Get(ctx context.Context, namespace datypes.Namespace, height uint64) (datypes.Read, error) {
	args := m.Called(ctx, namespace, height)
	return args.Get(0).(datypes.Read), args.Error(1)
}

// GetAll implements datypes.DataAvailability.
func (m *MockDataAvailability) GetAll(ctx context.Context, namespace datypes.Namespace) (datypes.ReadAll, error) {
	args := m.Called(ctx, namespace)
	return args.Get(0).(datypes.ReadAll), args.Error(1)
}

// FastGet implements datypes.DataAvailability.
func (m *MockDataAvailability) FastGet(ctx context.Context, commitment datypes.Commitment) (datypes.IndexRead, error) {
	args := m.Called(ctx, commitment)
	return args.Get(0).(datypes.IndexRead), args.Error(1)
}
