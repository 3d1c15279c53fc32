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

package revision

import (
	"context"
	goerrors "errors"
	"slices"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/pkg/entity"
)

// isDuplicate reports whether the candidate members are content-identical to
// the most recent prior revision touching any of the same identities. The
// comparison is by multiset of serialized payloads, so member order never
// matters; any difference in count or content means the candidate is novel.
//
// Only the single most recent matching revision is consulted, even when the
// candidate's members were last touched by different revisions.
func (m *Manager) isDuplicate(ctx context.Context, members []*database.VersionInfo) (bool, error) {
	if len(members) == 0 {
		return false, nil
	}

	refs := make([]entity.Ref, 0, len(members))
	for _, member := range members {
		refs = append(refs, member.Ref())
	}

	latest, err := m.db.FindLatestRevisionInfoByRefs(ctx, refs)
	if goerrors.Is(err, database.ErrRevisionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	prior, err := m.db.FindVersionInfosByRevisionID(ctx, latest.ID)
	if err != nil {
		return false, err
	}
	if len(prior) != len(members) {
		return false, nil
	}

	priorPayloads := make([]string, 0, len(prior))
	for _, version := range prior {
		priorPayloads = append(priorPayloads, string(version.Snapshot))
	}
	candidatePayloads := make([]string, 0, len(members))
	for _, member := range members {
		candidatePayloads = append(candidatePayloads, string(member.Snapshot))
	}

	slices.Sort(priorPayloads)
	slices.Sort(candidatePayloads)
	return slices.Equal(priorPayloads, candidatePayloads), nil
}
