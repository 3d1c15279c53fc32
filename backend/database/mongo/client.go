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

// Package mongo implements the database interface using MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	gotime "time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/internal/log"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/types"
)

// revisionCacheSize bounds the cache of immutable revision rows used while
// resolving the most recent revision for duplicate detection.
const revisionCacheSize = 1000

// Client is a client that connects to MongoDB and reads or saves Chronicle
// data.
type Client struct {
	config *Config
	client *mongo.Client

	// revisionCache caches RevisionInfo by ID. Revisions are immutable once
	// written, so cached entries never go stale.
	revisionCache *lru.Cache[types.ID, *database.RevisionInfo]
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	clientOptions := options.Client().ApplyURI(conf.ConnectionURI)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.ChronicleDatabase)); err != nil {
		return nil, err
	}

	revisionCache, err := lru.New[types.ID, *database.RevisionInfo](revisionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize revision cache: %w", err)
	}

	log.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.ChronicleDatabase)

	return &Client{
		config:        conf,
		client:        client,
		revisionCache: revisionCache,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	c.revisionCache.Purge()

	return nil
}

// CreateRevisionInfo creates a new revision with the given actor and comment.
func (c *Client) CreateRevisionInfo(
	ctx context.Context,
	actor, comment string,
) (*database.RevisionInfo, error) {
	seq, err := c.nextSeq(ctx, ColRevisions)
	if err != nil {
		return nil, err
	}

	info := &database.RevisionInfo{
		ID:        newID(),
		Seq:       seq,
		Actor:     actor,
		Comment:   comment,
		CreatedAt: gotime.Now(),
	}

	if _, err := c.collection(ColRevisions).InsertOne(ctx, info); err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	c.revisionCache.Add(info.ID, info.DeepCopy())
	return info, nil
}

// CreateVersionInfo stores a member snapshot of a revision.
func (c *Client) CreateVersionInfo(
	ctx context.Context,
	info *database.VersionInfo,
) (*database.VersionInfo, error) {
	stored := info.DeepCopy()
	stored.ID = newID()
	stored.CreatedAt = gotime.Now()

	if _, err := c.collection(ColVersions).InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	return stored, nil
}

// CreateMetaInfo stores a side-table record attached to a revision.
func (c *Client) CreateMetaInfo(
	ctx context.Context,
	info *database.MetaInfo,
) (*database.MetaInfo, error) {
	stored := info.DeepCopy()
	stored.ID = newID()

	if _, err := c.collection(ColMetas).InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert meta: %w", err)
	}

	return stored, nil
}

// FindLatestRevisionInfoByRefs returns the most recent revision containing a
// version that matches any of the given refs.
func (c *Client) FindLatestRevisionInfoByRefs(
	ctx context.Context,
	refs []entity.Ref,
) (*database.RevisionInfo, error) {
	if len(refs) == 0 {
		return nil, database.ErrRevisionNotFound
	}

	conditions := make([]bson.M, 0, len(refs))
	for _, ref := range refs {
		conditions = append(conditions, bson.M{
			"entity_kind": ref.Kind.String(),
			"entity_id":   ref.ID.String(),
		})
	}

	cursor, err := c.collection(ColVersions).Find(
		ctx,
		bson.M{"$or": conditions},
		options.Find().SetProjection(bson.M{"revision_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find versions by refs: %w", err)
	}

	var rows []struct {
		RevisionID types.ID `bson:"revision_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("fetch version refs: %w", err)
	}
	if len(rows) == 0 {
		return nil, database.ErrRevisionNotFound
	}

	var latest *database.RevisionInfo
	seen := map[types.ID]bool{}
	for _, row := range rows {
		if seen[row.RevisionID] {
			continue
		}
		seen[row.RevisionID] = true

		revision, err := c.findRevisionInfoByID(ctx, row.RevisionID)
		if errors.Is(err, database.ErrRevisionNotFound) {
			// A version row whose revision is missing does not resolve to a
			// prior revision.
			continue
		}
		if err != nil {
			return nil, err
		}
		if latest == nil || revision.Seq > latest.Seq {
			latest = revision
		}
	}

	if latest == nil {
		return nil, database.ErrRevisionNotFound
	}

	return latest.DeepCopy(), nil
}

// FindVersionInfosByRevisionID returns the member versions of the given
// revision.
func (c *Client) FindVersionInfosByRevisionID(
	ctx context.Context,
	revisionID types.ID,
) ([]*database.VersionInfo, error) {
	cursor, err := c.collection(ColVersions).Find(ctx, bson.M{
		"revision_id": revisionID,
	})
	if err != nil {
		return nil, fmt.Errorf("find versions by revision: %w", err)
	}

	var infos []*database.VersionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch versions: %w", err)
	}

	return infos, nil
}

// FindVersionInfosByRef returns the stored versions of a single entity, most
// recent first.
func (c *Client) FindVersionInfosByRef(
	ctx context.Context,
	ref entity.Ref,
) ([]*database.VersionInfo, error) {
	cursor, err := c.collection(ColVersions).Find(
		ctx,
		bson.M{
			"entity_kind": ref.Kind.String(),
			"entity_id":   ref.ID.String(),
		},
		options.Find().SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("find versions by ref: %w", err)
	}

	var infos []*database.VersionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch versions: %w", err)
	}

	return infos, nil
}

// FindMetaInfosByRevisionID returns the side-table records attached to the
// given revision.
func (c *Client) FindMetaInfosByRevisionID(
	ctx context.Context,
	revisionID types.ID,
) ([]*database.MetaInfo, error) {
	cursor, err := c.collection(ColMetas).Find(ctx, bson.M{
		"revision_id": revisionID,
	})
	if err != nil {
		return nil, fmt.Errorf("find metas by revision: %w", err)
	}

	var infos []*database.MetaInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch metas: %w", err)
	}

	return infos, nil
}

// FindRevisionInfosByPaging returns revisions ordered by sequence number.
func (c *Client) FindRevisionInfosByPaging(
	ctx context.Context,
	paging types.Paging[int64],
) ([]*database.RevisionInfo, error) {
	filter := bson.M{}
	order := -1
	if paging.IsForward {
		order = 1
	}
	if paging.Offset > 0 {
		cmp := "$lt"
		if paging.IsForward {
			cmp = "$gt"
		}
		filter["seq"] = bson.M{cmp: paging.Offset}
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: order}})
	if paging.PageSize > 0 {
		opts.SetLimit(int64(paging.PageSize))
	}

	cursor, err := c.collection(ColRevisions).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find revisions: %w", err)
	}

	var infos []*database.RevisionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch revisions: %w", err)
	}

	return infos, nil
}

// findRevisionInfoByID returns the revision with the given ID, through the
// cache of immutable revision rows.
func (c *Client) findRevisionInfoByID(
	ctx context.Context,
	revisionID types.ID,
) (*database.RevisionInfo, error) {
	if info, ok := c.revisionCache.Get(revisionID); ok {
		return info, nil
	}

	result := c.collection(ColRevisions).FindOne(ctx, bson.M{"_id": revisionID})
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", revisionID, database.ErrRevisionNotFound)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("find revision: %w", result.Err())
	}

	var info database.RevisionInfo
	if err := result.Decode(&info); err != nil {
		return nil, fmt.Errorf("decode revision: %w", err)
	}

	c.revisionCache.Add(info.ID, info.DeepCopy())
	return &info, nil
}

// nextSeq assigns the next sequence number for the given collection.
func (c *Client) nextSeq(ctx context.Context, name string) (int64, error) {
	result := c.collection(ColCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return 0, fmt.Errorf("update %s counter: %w", name, result.Err())
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := result.Decode(&counter); err != nil {
		return 0, fmt.Errorf("decode %s counter: %w", name, err)
	}

	return counter.Seq, nil
}

func (c *Client) collection(
	name string,
	opts ...options.Lister[options.CollectionOptions],
) *mongo.Collection {
	return c.client.
		Database(c.config.ChronicleDatabase).
		Collection(name, opts...)
}

func newID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}
