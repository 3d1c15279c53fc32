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

// Package metrics provides a Prometheus metrics exporter for the revision
// manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace   = "chronicle"
	reasonLabel = "reason"
)

const (
	// ReasonDuplicate marks commits suppressed by duplicate detection.
	ReasonDuplicate = "duplicate"
	// ReasonInvalidated marks commits discarded by scope invalidation.
	ReasonInvalidated = "invalidated"
	// ReasonEmpty marks commits with nothing captured.
	ReasonEmpty = "empty"
)

// Metrics manages the metric information that Chronicle measures.
type Metrics struct {
	registry *prometheus.Registry

	revisionsPersistedTotal prometheus.Counter
	revisionsSkippedTotal   *prometheus.CounterVec
	versionsPersistedTotal  prometheus.Counter
	snapshotBytesTotal      prometheus.Counter
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	return &Metrics{
		registry: reg,
		revisionsPersistedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revisions",
			Name:      "persisted_total",
			Help:      "The total count of persisted revisions.",
		}),
		revisionsSkippedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revisions",
			Name:      "skipped_total",
			Help:      "The total count of scope exits that persisted nothing.",
		}, []string{reasonLabel}),
		versionsPersistedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versions",
			Name:      "persisted_total",
			Help:      "The total count of persisted version snapshots.",
		}),
		snapshotBytesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "versions",
			Name:      "snapshot_bytes_total",
			Help:      "The total size of persisted snapshot payloads.",
		}),
	}
}

// AddRevisionPersisted records one persisted revision with the given member
// count and payload size.
func (m *Metrics) AddRevisionPersisted(members int, snapshotBytes int) {
	m.revisionsPersistedTotal.Inc()
	m.versionsPersistedTotal.Add(float64(members))
	m.snapshotBytesTotal.Add(float64(snapshotBytes))
}

// AddRevisionSkipped records one scope exit that persisted nothing for the
// given reason.
func (m *Metrics) AddRevisionSkipped(reason string) {
	m.revisionsSkippedTotal.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

// Registry returns the registry of this metrics instance.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
