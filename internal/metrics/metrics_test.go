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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/google/smtverify/merkle/smt"
)

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestVerifierCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	v := Verifier{}

	s := smt.NewState(0)
	s.Normalize()
	if err := v.Verify(smt.Digest{}, s, nil); err == nil {
		t.Fatalf("Verify(empty proof) = nil, want an error")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	f := findFamily(families, "smtverify_verify_total")
	if f == nil {
		t.Fatalf("smtverify_verify_total not registered")
	}
	var total float64
	for _, m := range f.Metric {
		total += m.GetCounter().GetValue()
	}
	if total != 1 {
		t.Errorf("smtverify_verify_total = %v, want 1", total)
	}
}
