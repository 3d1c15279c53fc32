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

// Package codec provides the serialization boundary of the revision core.
// A codec turns the captured field values of an entity into the byte
// payload stored with each version.
package codec

import (
	"fmt"
	"sync"

	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/errors"
)

// Format identifies a registered codec.
type Format string

const (
	// FormatJSON is the built-in JSON format.
	FormatJSON Format = "json"

	// DefaultFormat is the format used when a registration does not name one.
	DefaultFormat = FormatJSON
)

// ErrUnsupportedFormat is returned when no codec is registered for a format.
var ErrUnsupportedFormat = errors.NotFound("unsupported serialization format").WithCode("ErrUnsupportedFormat")

// Codec serializes captured entity field values into bytes.
//
// Marshal must be deterministic: identical field values must produce
// identical bytes. Duplicate detection compares payloads byte-wise and
// breaks silently otherwise.
type Codec interface {
	// Format returns the format this codec serves.
	Format() Format

	// Marshal serializes the given entity identity and field values.
	Marshal(kind entity.Kind, id entity.ID, values map[string]any) ([]byte, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = map[Format]Codec{}
)

// Register registers the given codec for its format. Registering two codecs
// for the same format is a programming error.
func Register(c Codec) error {
	codecsMu.Lock()
	defer codecsMu.Unlock()

	if _, ok := codecs[c.Format()]; ok {
		return fmt.Errorf("%s: %w", c.Format(), errors.AlreadyExists("codec already registered").WithCode("ErrCodecAlreadyRegistered"))
	}
	codecs[c.Format()] = c

	return nil
}

// Get returns the codec registered for the given format.
func Get(format Format) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}

	return c, nil
}

func init() {
	if err := Register(jsonCodec{}); err != nil {
		panic(err)
	}
}
