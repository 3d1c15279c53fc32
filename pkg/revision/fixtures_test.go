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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/backend/database/memory"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/registry"
	"github.com/chronicle-team/chronicle/pkg/revision"
	"github.com/chronicle-team/chronicle/pkg/types"
)

const (
	kindArticle  = entity.Kind("blog.Article")
	kindAuthor   = entity.Kind("blog.Author")
	kindFeatured = entity.Kind("blog.FeaturedArticle")
)

// article is a test entity with an optional author relationship.
type article struct {
	id     string
	title  string
	body   string
	author *author
}

func (a *article) EntityKind() entity.Kind { return kindArticle }
func (a *article) EntityID() entity.ID     { return entity.ID(a.id) }
func (a *article) String() string          { return a.title }

// author is a test entity that can point back at its articles, closing a
// relationship cycle with article.
type author struct {
	id       string
	name     string
	articles []*article
}

func (a *author) EntityKind() entity.Kind { return kindAuthor }
func (a *author) EntityID() entity.ID     { return entity.ID(a.id) }
func (a *author) String() string          { return a.name }

// featured is a view over an article, like a proxy row with no storage of
// its own.
type featured struct {
	base *article
}

func (f *featured) EntityKind() entity.Kind { return kindFeatured }
func (f *featured) EntityID() entity.ID     { return f.base.EntityID() }
func (f *featured) String() string          { return "featured " + f.base.title }

func articleOptions() registry.Options {
	return registry.Options{
		Values: func(e entity.Entity) map[string]any {
			a := e.(*article)
			values := map[string]any{"title": a.title, "body": a.body}
			if a.author != nil {
				values["author"] = a.author.id
			}
			return values
		},
		Follow: []registry.Relationship{{
			Name: "author",
			Resolve: func(e entity.Entity) any {
				a := e.(*article)
				if a.author == nil {
					return nil
				}
				return a.author
			},
		}},
	}
}

func authorOptions() registry.Options {
	return registry.Options{
		Values: func(e entity.Entity) map[string]any {
			return map[string]any{"name": e.(*author).name}
		},
		Follow: []registry.Relationship{{
			Name: "articles",
			Resolve: func(e entity.Entity) any {
				a := e.(*author)
				related := make([]entity.Entity, 0, len(a.articles))
				for _, art := range a.articles {
					related = append(related, art)
				}
				return related
			},
		}},
	}
}

func featuredOptions() registry.Options {
	return registry.Options{
		Values: func(e entity.Entity) map[string]any {
			return map[string]any{"title": e.(*featured).base.title}
		},
		Base: func(e entity.Entity) entity.Entity {
			return e.(*featured).base
		},
		BaseKind: kindArticle,
	}
}

// newManager creates a manager persisting into a fresh in-memory database.
func newManager(t *testing.T) (*revision.Manager, database.Database) {
	t.Helper()

	db, err := memory.New()
	require.NoError(t, err)
	return revision.New(db), db
}

func revisionCount(t *testing.T, db database.Database) int {
	t.Helper()

	infos, err := db.FindRevisionInfosByPaging(context.Background(), types.Paging[int64]{IsForward: true})
	require.NoError(t, err)
	return len(infos)
}

func membersOfLatest(t *testing.T, db database.Database) []*database.VersionInfo {
	t.Helper()

	infos, err := db.FindRevisionInfosByPaging(context.Background(), types.Paging[int64]{PageSize: 1})
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	members, err := db.FindVersionInfosByRevisionID(context.Background(), infos[0].ID)
	require.NoError(t, err)
	return members
}
