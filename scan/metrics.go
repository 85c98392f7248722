/*
 * scan/metrics.go, part of dihscan.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the scanner does. The zero value is not usable, use NewMetrics.
type Metrics struct {
	Rotations  prometheus.Counter
	Backtracks *prometheus.CounterVec
	Aborts     prometheus.Counter
	Scans      *prometheus.CounterVec
	Visits     prometheus.Histogram
	Problems   prometheus.Histogram
}

// NewMetrics registers the scan metrics in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rotations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dihscan",
			Name:      "rotations_total",
			Help:      "Rotations applied to dihedrals",
		}),
		Backtracks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dihscan",
			Name:      "backtracks_total",
			Help:      "Times the random scan moved back to an earlier dihedral",
		}, []string{"reason"}),
		Aborts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dihscan",
			Name:      "aborts_total",
			Help:      "Random scans stopped because the visit budget ran out",
		}),
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dihscan",
			Name:      "scans_total",
			Help:      "Frames scanned",
		}, []string{"mode"}),
		Visits: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dihscan",
			Name:      "dihedral_visits",
			Help:      "Dihedral visits per random scan",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Problems: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dihscan",
			Name:      "frame_problems",
			Help:      "Close non-bonded contacts left in each frame",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
}

// the methods below do nothing on a nil *Metrics, so the scanner needs no checks.

func (M *Metrics) rotation() {
	if M != nil {
		M.Rotations.Inc()
	}
}

func (M *Metrics) backtrack(reason string) {
	if M != nil {
		M.Backtracks.WithLabelValues(reason).Inc()
	}
}

func (M *Metrics) scanDone(mode string, r Report) {
	if M == nil {
		return
	}
	M.Scans.WithLabelValues(mode).Inc()
	if mode == ModeRandom {
		M.Visits.Observe(float64(r.Visits))
	}
	if r.Aborted {
		M.Aborts.Inc()
	}
}

func (M *Metrics) problems(n int) {
	if M != nil {
		M.Problems.Observe(float64(n))
	}
}
