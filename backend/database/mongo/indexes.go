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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColRevisions represents the revisions collection in the database.
	ColRevisions = "revisions"
	// ColVersions represents the versions collection in the database.
	ColVersions = "versions"
	// ColMetas represents the metas collection in the database.
	ColMetas = "metas"
	// ColCounters represents the counters collection used for sequence
	// number assignment.
	ColCounters = "counters"
)

// Collections represents the list of all collections that store Chronicle
// data.
var Collections = []string{
	ColRevisions,
	ColVersions,
	ColMetas,
	ColCounters,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of the collections.
var collectionInfos = []collectionInfo{
	{
		name: ColRevisions,
		indexes: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "seq", Value: int32(1)}},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: ColVersions,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "entity_kind", Value: int32(1)},
				{Key: "entity_id", Value: int32(1)},
			},
		}, {
			Keys: bson.D{{Key: "revision_id", Value: int32(1)}},
		}},
	},
	{
		name: ColMetas,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{{Key: "revision_id", Value: int32(1)}},
		}},
	},
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		_, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes)
		if err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}
	return nil
}
