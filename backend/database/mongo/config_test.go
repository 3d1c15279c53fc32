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

package mongo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-team/chronicle/backend/database/mongo"
)

func TestConfig(t *testing.T) {
	valid := mongo.Config{
		ConnectionTimeout: "5s",
		ConnectionURI:     "mongodb://localhost:27017",
		ChronicleDatabase: "chronicle",
		PingTimeout:       "3s",
	}

	t.Run("valid config", func(t *testing.T) {
		conf := valid
		assert.NoError(t, conf.Validate())
		assert.Equal(t, 5*time.Second, conf.ParseConnectionTimeout())
		assert.Equal(t, 3*time.Second, conf.ParsePingTimeout())
	})

	t.Run("missing database name", func(t *testing.T) {
		conf := valid
		conf.ChronicleDatabase = ""
		assert.Error(t, conf.Validate())
	})

	t.Run("malformed timeout", func(t *testing.T) {
		conf := valid
		conf.ConnectionTimeout = "five seconds"
		assert.Error(t, conf.Validate())
	})

	t.Run("malformed ping timeout", func(t *testing.T) {
		conf := valid
		conf.PingTimeout = "soon"
		assert.Error(t, conf.Validate())
	})
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("values from file override the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chronicle.yml")
		require.NoError(t, os.WriteFile(path, []byte(
			"ConnectionURI: mongodb://mongo.internal:27017\n"+
				"ChronicleDatabase: chronicle-staging\n"+
				"PingTimeout: 10s\n",
		), 0o600))

		conf, err := mongo.NewConfigFromFile(path)
		require.NoError(t, err)
		assert.NoError(t, conf.Validate())
		assert.Equal(t, "mongodb://mongo.internal:27017", conf.ConnectionURI)
		assert.Equal(t, "chronicle-staging", conf.ChronicleDatabase)
		assert.Equal(t, 10*time.Second, conf.ParsePingTimeout())
		assert.Equal(t, mongo.DefaultConnectionTimeout, conf.ConnectionTimeout)
	})

	t.Run("empty file falls back to all defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chronicle.yml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		conf, err := mongo.NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, mongo.NewConfig(), conf)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := mongo.NewConfigFromFile(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chronicle.yml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

		_, err := mongo.NewConfigFromFile(path)
		assert.Error(t, err)
	})
}
