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

// Package types provides shared types used across the Chronicle packages.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrInvalidID is returned when the given ID is not a valid stored-record ID.
var ErrInvalidID = errors.New("invalid ID")

// ID is the unique identifier of a stored record such as a revision or a
// version row. It is a hexadecimal string representation of a 12-byte value.
type ID string

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns an error if this ID is invalid.
func (id ID) Validate() error {
	b, err := hex.DecodeString(id.String())
	if err != nil {
		return fmt.Errorf("%s: %w", id, ErrInvalidID)
	}

	if len(b) != 12 {
		return fmt.Errorf("%s: %w", id, ErrInvalidID)
	}

	return nil
}
