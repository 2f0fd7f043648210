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

// Command smtverify is a flag-configured CLI around the sparse Merkle
// tree proof verifier, in the style of trillian's own server binaries.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/sync/errgroup"

	"github.com/google/smtverify/internal/audit"
	"github.com/google/smtverify/internal/service"
	"github.com/google/smtverify/merkle/smt"
)

var (
	listenAddr   = flag.String("listen", ":8080", "address for the serve subcommand")
	etcdEndpoint = flag.String("etcd_endpoint", "", "etcd endpoint to watch for the live audit backend key; empty disables watching")
	auditBackend = flag.String("audit_backend", "none", "audit backend: none, mysql, redis, spanner")
	auditDSN     = flag.String("audit_dsn", "", "connection string for the chosen audit backend")
)

type leafFile struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type proofFile struct {
	Root  string     `json:"root"`
	Proof string     `json:"proof"`
	Leafs []leafFile `json:"leaves"`
}

func loadState(leaves []leafFile) (*smt.State, error) {
	st := smt.NewState(len(leaves))
	for _, l := range leaves {
		kb, err := hex.DecodeString(l.Key)
		if err != nil {
			return nil, fmt.Errorf("decoding key: %w", err)
		}
		vb, err := hex.DecodeString(l.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding value: %w", err)
		}
		var k smt.Key
		var v smt.Value
		copy(k[:], kb)
		copy(v[:], vb)
		if err := st.Insert(k, v); err != nil {
			return nil, err
		}
	}
	st.Normalize()
	return st, nil
}

func loadProofFile(path string) (*proofFile, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf proofFile
	if err := json.Unmarshal(f, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &pf, nil
}

func runVerify(path string) error {
	pf, err := loadProofFile(path)
	if err != nil {
		return err
	}
	st, err := loadState(pf.Leafs)
	if err != nil {
		return err
	}
	proof, err := hex.DecodeString(pf.Proof)
	if err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	root, err := hex.DecodeString(pf.Root)
	if err != nil {
		return fmt.Errorf("decoding root: %w", err)
	}
	var want smt.Digest
	copy(want[:], root)
	if err := smt.Verify(want, st, proof); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

// runVerifyBatch verifies N proof files concurrently, independent of the
// long-lived worker pool in internal/batch: a one-shot fan-out with the
// first error winning, suited to a single CLI invocation.
func runVerifyBatch(paths []string) error {
	g, _ := errgroup.WithContext(context.Background())
	for _, p := range paths {
		p := p
		g.Go(func() error { return runVerify(p) })
	}
	return g.Wait()
}

func runRoot(path string) error {
	pf, err := loadProofFile(path)
	if err != nil {
		return err
	}
	st, err := loadState(pf.Leafs)
	if err != nil {
		return err
	}
	proof, err := hex.DecodeString(pf.Proof)
	if err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	root, err := smt.CalculateRoot(st, proof)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Println(hex.EncodeToString(root[:]))
	return nil
}

func openAuditStore() (audit.Store, error) {
	switch *auditBackend {
	case "none", "":
		return audit.Nop{}, nil
	case "mysql":
		return audit.NewMySQLStore(*auditDSN)
	case "redis":
		return audit.NewRedisStore(*auditDSN, 5*time.Minute)
	case "spanner":
		return audit.NewSpannerStore(context.Background(), *auditDSN, "verify_audit")
	default:
		return nil, fmt.Errorf("unknown audit backend %q", *auditBackend)
	}
}

// watchAuditBackend watches /smtverify/audit-backend on an etcd cluster and
// logs each new value of the key. It only logs: the running server keeps
// the Store that openAuditStore built at startup.
func watchAuditBackend(ctx context.Context, endpoint string) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{endpoint},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		glog.Errorf("etcd: dial %s: %v", endpoint, err)
		return
	}
	defer cli.Close()

	watch := cli.Watch(ctx, "/smtverify/audit-backend")
	for resp := range watch {
		for _, ev := range resp.Events {
			glog.Infof("etcd: audit backend key changed: %s", string(ev.Kv.Value))
		}
	}
}

func runServe() error {
	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if *etcdEndpoint != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watchAuditBackend(ctx, *etcdEndpoint)
	}

	srv := service.NewServer(store)
	glog.Infof("smtverify: listening on %s", *listenAddr)
	return http.ListenAndServe(*listenAddr, srv.Router())
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: smtverify <verify|verify-batch|root|serve> [args...]")
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "verify":
		if len(args) != 2 {
			err = fmt.Errorf("verify requires exactly one proof file")
			break
		}
		err = runVerify(args[1])
	case "verify-batch":
		err = runVerifyBatch(args[1:])
	case "root":
		if len(args) != 2 {
			err = fmt.Errorf("root requires exactly one proof file")
			break
		}
		err = runRoot(args[1])
	case "serve":
		err = runServe()
	default:
		err = fmt.Errorf("unknown subcommand %q", args[0])
	}
	if err != nil {
		glog.Errorf("smtverify: %v", err)
		os.Exit(1)
	}
}
