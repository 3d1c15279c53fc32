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

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/chronicle-team/chronicle/pkg/entity"
)

// jsonEnvelope is the stored form of a JSON snapshot. The identity travels
// with the fields so a payload is self-describing when browsed later.
type jsonEnvelope struct {
	Kind   string         `json:"kind"`
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// jsonCodec implements Codec with encoding/json. Map keys are emitted in
// sorted order, which makes the output deterministic for identical values.
type jsonCodec struct{}

// Format returns FormatJSON.
func (jsonCodec) Format() Format {
	return FormatJSON
}

// Marshal serializes the given identity and field values as JSON.
func (jsonCodec) Marshal(kind entity.Kind, id entity.ID, values map[string]any) ([]byte, error) {
	snapshot, err := json.Marshal(jsonEnvelope{
		Kind:   kind.String(),
		ID:     id.String(),
		Fields: values,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot of %s:%s: %w", kind, id, err)
	}

	return snapshot, nil
}
