/*
 * Copyright 2026 The Chronicle Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package revision_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/registry"
	"github.com/chronicle-team/chronicle/pkg/revision"
	"github.com/chronicle-team/chronicle/pkg/types"
)

func TestScopeLifecycle(t *testing.T) {
	t.Run("balanced nesting commits once at the outermost end", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.Add(ctx, &article{id: "1", title: "A", body: "x"}, entity.Added))

		require.NoError(t, manager.End(ctx))
		assert.Equal(t, 0, revisionCount(t, db), "inner end must not commit")
		assert.True(t, manager.IsActive(ctx))

		require.NoError(t, manager.End(ctx))
		assert.Equal(t, 1, revisionCount(t, db))
		assert.False(t, manager.IsActive(ctx))
	})

	t.Run("end without start fails", func(t *testing.T) {
		manager, _ := newManager(t)

		ctx := revision.WithScope(context.Background())
		assert.ErrorIs(t, manager.End(ctx), revision.ErrNoActiveScope)
	})

	t.Run("accessors outside a scope fail", func(t *testing.T) {
		manager, _ := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		assert.ErrorIs(t, manager.Add(ctx, &article{id: "1"}, entity.Changed), revision.ErrNoActiveScope)
		assert.ErrorIs(t, manager.SetActor(ctx, "alice"), revision.ErrNoActiveScope)
		assert.ErrorIs(t, manager.SetComment(ctx, "c"), revision.ErrNoActiveScope)
		assert.ErrorIs(t, manager.AddMeta(ctx, "approval", nil), revision.ErrNoActiveScope)
		assert.ErrorIs(t, manager.SetSuppressDuplicates(ctx, true), revision.ErrNoActiveScope)
		assert.ErrorIs(t, manager.Invalidate(ctx), revision.ErrNoActiveScope)
	})

	t.Run("unprepared context is a setup bug", func(t *testing.T) {
		manager, _ := newManager(t)

		ctx := context.Background()
		assert.ErrorIs(t, manager.Start(ctx), revision.ErrNoScopeContext)
		assert.ErrorIs(t, manager.End(ctx), revision.ErrNoScopeContext)
		assert.ErrorIs(t, manager.SetActor(ctx, "alice"), revision.ErrNoScopeContext)
		assert.False(t, revision.HasScope(ctx))
	})

	t.Run("state is reusable after the outermost end", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.SetActor(ctx, "alice"))
		require.NoError(t, manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added))
		require.NoError(t, manager.End(ctx))

		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.End(ctx))
		assert.Equal(t, 1, revisionCount(t, db), "second empty scope persists nothing")
	})
}

func TestAdd(t *testing.T) {
	t.Run("unregistered kind fails", func(t *testing.T) {
		manager, _ := newManager(t)

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		defer func() {
			require.NoError(t, manager.End(ctx))
		}()

		assert.ErrorIs(t, manager.Add(ctx, &article{id: "1"}, entity.Added), registry.ErrNotRegistered)
	})

	t.Run("last write wins per identity", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))

		a := &article{id: "1", title: "A", body: "draft"}
		require.NoError(t, manager.Add(ctx, a, entity.Added))
		a.body = "final"
		require.NoError(t, manager.Add(ctx, a, entity.Changed))

		require.NoError(t, manager.End(ctx))

		members := membersOfLatest(t, db)
		require.Len(t, members, 1)
		assert.Equal(t, entity.Changed, members[0].Change)
		assert.Contains(t, string(members[0].Snapshot), "final")
	})

	t.Run("integral identities carry a numeric form", func(t *testing.T) {
		manager, db := newManager(t)
		opts := articleOptions()
		opts.IntegerIDs = true
		require.NoError(t, manager.Register(kindArticle, opts))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.Add(ctx, &article{id: "42", title: "A"}, entity.Added))
		require.NoError(t, manager.End(ctx))

		members := membersOfLatest(t, db)
		require.Len(t, members, 1)
		require.NotNil(t, members[0].EntityIDInt)
		assert.Equal(t, int64(42), *members[0].EntityIDInt)
	})

	t.Run("malformed integral identity fails without capturing", func(t *testing.T) {
		manager, _ := newManager(t)
		opts := articleOptions()
		opts.IntegerIDs = true
		require.NoError(t, manager.Register(kindArticle, opts))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		defer func() {
			require.NoError(t, manager.End(ctx))
		}()

		assert.Error(t, manager.Add(ctx, &article{id: "not-a-number"}, entity.Added))
	})
}

func TestInvalidate(t *testing.T) {
	manager, db := newManager(t)
	require.NoError(t, manager.Register(kindArticle, articleOptions()))

	ctx := revision.WithScope(context.Background())
	require.NoError(t, manager.Start(ctx))
	require.NoError(t, manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added))
	require.NoError(t, manager.Invalidate(ctx))
	require.NoError(t, manager.End(ctx), "invalidation is not an error")

	assert.Equal(t, 0, revisionCount(t, db))
}

func TestScoped(t *testing.T) {
	t.Run("success commits", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		err := manager.Scoped(context.Background(), func(ctx context.Context) error {
			return manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, revisionCount(t, db))
	})

	t.Run("failure invalidates and propagates the original error", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		workErr := errors.New("work failed")
		err := manager.Scoped(context.Background(), func(ctx context.Context) error {
			require.NoError(t, manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added))
			return workErr
		})
		assert.ErrorIs(t, err, workErr)
		assert.Equal(t, 0, revisionCount(t, db))
	})

	t.Run("nested scoped units commit once", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		err := manager.Scoped(ctx, func(ctx context.Context) error {
			if err := manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added); err != nil {
				return err
			}
			return manager.Scoped(ctx, func(ctx context.Context) error {
				return manager.Add(ctx, &article{id: "2", title: "B"}, entity.Added)
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, revisionCount(t, db))
		assert.Len(t, membersOfLatest(t, db), 2)
	})

	t.Run("panic invalidates, ends and repanics", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		assert.Panics(t, func() {
			_ = manager.Scoped(ctx, func(ctx context.Context) error {
				_ = manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added)
				panic("boom")
			})
		})
		assert.Equal(t, 0, revisionCount(t, db))
		assert.False(t, manager.IsActive(ctx))
	})
}

func TestLifecycleHooks(t *testing.T) {
	t.Run("saved and deleting hooks capture inside a scope", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.OnEntitySaved(ctx, &article{id: "1", title: "A"}, true))
		require.NoError(t, manager.OnEntitySaved(ctx, &article{id: "2", title: "B"}, false))
		require.NoError(t, manager.OnEntityDeleting(ctx, &article{id: "3", title: "C"}))
		require.NoError(t, manager.End(ctx))

		members := membersOfLatest(t, db)
		require.Len(t, members, 3)
		changes := map[entity.ID]entity.ChangeKind{}
		for _, member := range members {
			changes[member.EntityID] = member.Change
		}
		assert.Equal(t, entity.Added, changes["1"])
		assert.Equal(t, entity.Changed, changes["2"])
		assert.Equal(t, entity.Deleted, changes["3"])
	})

	t.Run("mutations outside a scope are ignored", func(t *testing.T) {
		manager, db := newManager(t)
		require.NoError(t, manager.Register(kindArticle, articleOptions()))

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.OnEntitySaved(ctx, &article{id: "1"}, true))
		require.NoError(t, manager.OnEntityDeleting(ctx, &article{id: "1"}))
		assert.Equal(t, 0, revisionCount(t, db))
	})

	t.Run("unregistered kinds are ignored", func(t *testing.T) {
		manager, db := newManager(t)

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		require.NoError(t, manager.OnEntitySaved(ctx, &article{id: "1"}, true))
		require.NoError(t, manager.End(ctx))
		assert.Equal(t, 0, revisionCount(t, db))
	})

	t.Run("context teardown reports leaked scopes", func(t *testing.T) {
		manager, _ := newManager(t)

		ctx := revision.WithScope(context.Background())
		require.NoError(t, manager.Start(ctx))
		assert.ErrorIs(t, manager.OnContextEnded(ctx), revision.ErrUnbalancedScope)

		// The leaked scope was reset, so the context is safe to reuse.
		assert.False(t, manager.IsActive(ctx))
		assert.NoError(t, manager.OnContextEnded(ctx))
	})
}

func TestMetadata(t *testing.T) {
	manager, db := newManager(t)
	require.NoError(t, manager.Register(kindArticle, articleOptions()))

	ctx := revision.WithScope(context.Background())
	require.NoError(t, manager.Start(ctx))
	require.NoError(t, manager.SetActor(ctx, "alice"))
	require.NoError(t, manager.SetComment(ctx, "weekly edit"))
	require.NoError(t, manager.AddMeta(ctx, "approval", map[string]any{"ticket": "OPS-7"}))
	require.NoError(t, manager.Add(ctx, &article{id: "1", title: "A"}, entity.Added))
	require.NoError(t, manager.End(ctx))

	infos, err := db.FindRevisionInfosByPaging(ctx, types.Paging[int64]{IsForward: true})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "alice", infos[0].Actor)
	assert.Equal(t, "weekly edit", infos[0].Comment)

	metas, err := db.FindMetaInfosByRevisionID(ctx, infos[0].ID)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "approval", metas[0].Kind)
	assert.Equal(t, map[string]any{"ticket": "OPS-7"}, metas[0].Fields)
}

func TestEndToEndArticle(t *testing.T) {
	manager, db := newManager(t)
	require.NoError(t, manager.Register(kindArticle, registry.Options{
		Values: func(e entity.Entity) map[string]any {
			a := e.(*article)
			return map[string]any{"title": a.title, "body": a.body}
		},
	}))

	a := &article{id: "1", title: "A", body: "x"}

	// Create.
	ctx := revision.WithScope(context.Background())
	require.NoError(t, manager.Start(ctx))
	require.NoError(t, manager.OnEntitySaved(ctx, a, true))
	require.NoError(t, manager.End(ctx))

	require.Equal(t, 1, revisionCount(t, db))
	members := membersOfLatest(t, db)
	require.Len(t, members, 1)
	assert.Equal(t, entity.Added, members[0].Change)
	firstSnapshot := members[0].Snapshot

	// Update.
	require.NoError(t, manager.Start(ctx))
	a.body = "y"
	require.NoError(t, manager.OnEntitySaved(ctx, a, false))
	require.NoError(t, manager.End(ctx))

	require.Equal(t, 2, revisionCount(t, db))
	members = membersOfLatest(t, db)
	require.Len(t, members, 1)
	assert.Equal(t, entity.Changed, members[0].Change)
	assert.NotEqual(t, firstSnapshot, members[0].Snapshot)

	// Re-save without an actual change, suppressing duplicates.
	require.NoError(t, manager.Start(ctx))
	require.NoError(t, manager.SetSuppressDuplicates(ctx, true))
	require.NoError(t, manager.OnEntitySaved(ctx, a, false))
	require.NoError(t, manager.End(ctx))

	assert.Equal(t, 2, revisionCount(t, db), "identical content must not persist a new revision")
}
