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

package types

// Paging is the paging information for browsing stored revisions.
type Paging[T any] struct {
	// Offset is the cursor the page starts after. The zero value means the
	// page starts from the beginning of the ordering.
	Offset T

	// PageSize is the maximum number of items in the page. Zero means no
	// limit.
	PageSize int

	// IsForward is whether the paging direction is ascending.
	IsForward bool
}
