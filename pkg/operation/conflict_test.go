// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ferry/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockProvider is a mock implementation of storage.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ReadDir(ctx context.Context, path string) ([]storage.Entry, error) {
	result := m.Called(ctx, path)
	return result.Get(0).([]storage.Entry), result.Error(1)
}

func (m *MockProvider) Stat(ctx context.Context, path string) (storage.Info, error) {
	result := m.Called(ctx, path)
	return result.Get(0).(storage.Info), result.Error(1)
}

func (m *MockProvider) Exists(ctx context.Context, path string) (bool, error) {
	result := m.Called(ctx, path)
	return result.Bool(0), result.Error(1)
}

func (m *MockProvider) CopyFile(ctx context.Context, src, dst string) error {
	result := m.Called(ctx, src, dst)
	return result.Error(0)
}

func (m *MockProvider) Remove(ctx context.Context, path string, recursive bool) error {
	result := m.Called(ctx, path, recursive)
	return result.Error(0)
}

func (m *MockProvider) Mkdir(ctx context.Context, path string) error {
	result := m.Called(ctx, path)
	return result.Error(0)
}

func (m *MockProvider) WriteEmptyFile(ctx context.Context, path string) error {
	result := m.Called(ctx, path)
	return result.Error(0)
}

func (m *MockProvider) Rename(ctx context.Context, src, dst string) error {
	result := m.Called(ctx, src, dst)
	return result.Error(0)
}

func TestResolverKeepsFreeName(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Exists", mock.Anything, "/dst/a.txt").Return(false, nil)

	resolver := NewResolver(provider, 0)
	name, err := resolver.Resolve(context.Background(), "/dst", "a.txt")

	require.NoError(t, err)
	assert.Equal(t, "a.txt", name)
	provider.AssertExpectations(t)
}

func TestResolverDerivesNumberedName(t *testing.T) {
	tests := []struct {
		name     string
		occupied []string
		desired  string
		want     string
	}{
		{
			name:     "first_conflict",
			occupied: []string{"/dst/x.ext"},
			desired:  "x.ext",
			want:     "x (1).ext",
		},
		{
			name:     "smallest_unused_k",
			occupied: []string{"/dst/x.ext", "/dst/x (1).ext", "/dst/x (2).ext"},
			desired:  "x.ext",
			want:     "x (3).ext",
		},
		{
			name:     "directory_without_extension",
			occupied: []string{"/dst/photos"},
			desired:  "photos",
			want:     "photos (1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &MockProvider{}
			for _, p := range tt.occupied {
				provider.On("Exists", mock.Anything, p).Return(true, nil)
			}
			provider.On("Exists", mock.Anything, "/dst/"+tt.want).Return(false, nil)

			resolver := NewResolver(provider, 0)
			name, err := resolver.Resolve(context.Background(), "/dst", tt.desired)

			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestResolverBoundedRetries(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Exists", mock.Anything, mock.Anything).Return(true, nil)

	resolver := NewResolver(provider, 5)
	_, err := resolver.Resolve(context.Background(), "/dst", "a.txt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenameExhausted))
	// desired name + 5 candidates, never unbounded
	provider.AssertNumberOfCalls(t, "Exists", 6)
}

func TestResolverSurfacesProviderFailure(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Exists", mock.Anything, "/dst/a.txt").Return(false, errors.New("permission denied"))

	resolver := NewResolver(provider, 0)
	_, err := resolver.Resolve(context.Background(), "/dst", "a.txt")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRenameExhausted), "provider failure must not look like a conflict")
	assert.Contains(t, err.Error(), "permission denied")
}
