// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics decorates merkle/smt.Verify with Prometheus
// instrumentation. The engine itself stays a pure function; everything
// here is an outer layer that times and counts calls to it.
package metrics

import (
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/google/smtverify/merkle/smt"
)

var (
	verifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smtverify_verify_total",
			Help: "Total number of Verify calls, labeled by outcome code.",
		},
		[]string{"code"},
	)
	verifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smtverify_verify_duration_seconds",
			Help:    "Latency of Verify calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smtverify_verify_in_flight",
			Help: "Number of Verify calls currently executing.",
		},
	)
)

// Register adds this package's collectors to reg. Call once at process
// startup, typically with prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{verifyTotal, verifyDuration, inFlight} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Verifier wraps merkle/smt.Verify with metrics and logging. The zero
// value is ready to use.
type Verifier struct{}

// Verify instruments a single call to smt.Verify.
func (Verifier) Verify(expected smt.Digest, state *smt.State, proof []byte) error {
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	err := smt.Verify(expected, state, proof)
	verifyDuration.Observe(time.Since(start).Seconds())

	code := "0"
	if err != nil {
		code = err.Error()
		glog.V(2).Infof("smtverify: Verify failed: %v", err)
	}
	verifyTotal.WithLabelValues(code).Inc()
	return err
}
