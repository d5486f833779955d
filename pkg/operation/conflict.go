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
	"fmt"
	"path"
	"strings"

	"github.com/walteh/ferry/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// DefaultRenameLimit bounds how many alternative names the resolver tries.
const DefaultRenameLimit = 1000

// ❌ ErrRenameExhausted is returned when every candidate name up to the
// limit is already taken.
var ErrRenameExhausted = errors.New("no free destination name")

// 🔀 Resolver derives a unique destination name when the desired one is
// occupied. Existence is checked explicitly before any write, so provider
// failures are never mistaken for naming conflicts.
type Resolver struct {
	provider storage.Provider
	limit    int
}

// 🏭 NewResolver creates a resolver. limit <= 0 uses DefaultRenameLimit.
func NewResolver(provider storage.Provider, limit int) *Resolver {
	if limit <= 0 {
		limit = DefaultRenameLimit
	}
	return &Resolver{provider: provider, limit: limit}
}

// Resolve returns a name free in dir: the desired name itself, or
// "<base> (<n>)<ext>" for the smallest unused n >= 1.
func (r *Resolver) Resolve(ctx context.Context, dir, name string) (string, error) {
	occupied, err := r.provider.Exists(ctx, path.Join(dir, name))
	if err != nil {
		return "", errors.Errorf("checking destination: %w", err)
	}
	if !occupied {
		return name, nil
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; n <= r.limit; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		occupied, err := r.provider.Exists(ctx, path.Join(dir, candidate))
		if err != nil {
			return "", errors.Errorf("checking destination: %w", err)
		}
		if !occupied {
			return candidate, nil
		}
	}
	return "", errors.Errorf("resolving name for %s in %s: %w", name, dir, ErrRenameExhausted)
}
