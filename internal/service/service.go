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

// Package service exposes the verifier over HTTP for operators who would
// rather curl an endpoint than link the library.
package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/google/smtverify/internal/audit"
	"github.com/google/smtverify/internal/metrics"
	"github.com/google/smtverify/merkle/smt"
)

// leafRequest is one staged (key, value) pair in the request body.
type leafRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// verifyRequest is the body of POST /v1/verify and /v1/root.
type verifyRequest struct {
	Root  string        `json:"root,omitempty"` // absent for /v1/root
	Proof string        `json:"proof"`
	Leafs []leafRequest `json:"leaves"`
}

type verifyResponse struct {
	OK   bool   `json:"ok"`
	Root string `json:"root,omitempty"`
	Code int    `json:"code,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Server wires the engine to an HTTP mux, recording every engine call to
// store. Metrics are reported for /v1/verify only; /v1/root calls the
// engine directly.
type Server struct {
	store audit.Store
	inst  metrics.Verifier
}

// NewServer builds a Server backed by store (use audit.Nop{} to disable
// persistence).
func NewServer(store audit.Store) *Server {
	if store == nil {
		store = audit.Nop{}
	}
	return &Server{store: store}
}

// Router builds the gorilla/mux router exposing this Server's endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/root", s.handleRoot).Methods(http.MethodPost)
	r.HandleFunc("/v1/verify", s.handleVerify).Methods(http.MethodPost)
	return r
}

func decodeState(leaves []leafRequest) (*smt.State, error) {
	st := smt.NewState(len(leaves))
	for _, l := range leaves {
		k, err := decodeDigest(l.Key)
		if err != nil {
			return nil, err
		}
		v, err := decodeDigest(l.Value)
		if err != nil {
			return nil, err
		}
		var key smt.Key
		var value smt.Value
		copy(key[:], k[:])
		copy(value[:], v[:])
		if err := st.Insert(key, value); err != nil {
			return nil, err
		}
	}
	st.Normalize()
	return st, nil
}

func decodeDigest(s string) (smt.Digest, error) {
	var d smt.Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	copy(d[:], b)
	return d, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	state, err := decodeState(req.Leafs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	root, err := smt.CalculateRoot(state, proof)
	s.record(r.Context(), root, err)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, verifyResponse{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{OK: true, Root: hex.EncodeToString(root[:])})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	state, err := decodeState(req.Leafs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}
	root, err := decodeDigest(req.Root)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Err: err.Error()})
		return
	}

	verifyErr := s.inst.Verify(root, state, proof)
	s.record(r.Context(), root, verifyErr)
	if verifyErr != nil {
		code := 0
		if c, ok := verifyErr.(smt.Code); ok {
			code = int(c)
		}
		writeJSON(w, http.StatusUnprocessableEntity, verifyResponse{Err: verifyErr.Error(), Code: code})
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{OK: true})
}

func (s *Server) record(ctx context.Context, root smt.Digest, err error) {
	rec := audit.Record{Root: root, CheckedAt: time.Now(), Caller: "http"}
	if c, ok := err.(smt.Code); ok {
		rec.Code = c
	} else if err != nil {
		rec.Code = smt.InvalidProof
	}
	recordCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if recErr := s.store.Record(recordCtx, rec); recErr != nil {
		glog.Errorf("service: audit record failed: %v", recErr)
	}
}

func writeJSON(w http.ResponseWriter, status int, v verifyResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("service: writing response: %v", err)
	}
}
