// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package audit

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	s, err := Open(context.Background(), "sqlite", dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLogAndListNewestFirst(t *testing.T) {
	s := openMemory(t)
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time { n++; return base.Add(time.Duration(n) * time.Minute) }
	s.user = func() string { return "alice" }

	ctx := context.Background()
	for _, a := range []string{ActionBackup, ActionDeploy, ActionDestroy} {
		if err := s.Log(ctx, a, "details of "+a); err != nil {
			t.Fatalf("Log(%s): %v", a, err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries", len(all))
	}
	if all[0].Action != ActionDestroy || all[2].Action != ActionBackup {
		t.Fatalf("not newest first: %+v", all)
	}
	if all[0].Username != "alice" || all[0].Details != "details of DESTROY" {
		t.Fatalf("unexpected entry %+v", all[0])
	}
	if !all[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("timestamp = %v", all[0].Timestamp)
	}

	two, err := s.List(ctx, 2)
	if err != nil || len(two) != 2 || two[1].Action != ActionDeploy {
		t.Fatalf("List(2) = %+v, %v", two, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	first, err := Open(context.Background(), "sqlite", dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()
	if err := first.Log(context.Background(), ActionRestore, "x"); err != nil {
		t.Fatal(err)
	}
	second, err := Open(context.Background(), "sqlite", dsn)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	got, err := second.List(context.Background(), 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("existing history lost: %+v, %v", got, err)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestOpenUsesPgxDriverForPostgres(t *testing.T) {
	var gotDriver string
	orig := sqlOpenFunc
	defer func() { sqlOpenFunc = orig }()
	sqlOpenFunc = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return nil, errors.New("no server in tests")
	}
	if _, err := Open(context.Background(), "postgres", "postgres://localhost/x"); err == nil {
		t.Fatalf("expected open error")
	}
	if gotDriver != "pgx" {
		t.Fatalf("driver = %q", gotDriver)
	}
}

func TestMySQLDSNEnablesParseTime(t *testing.T) {
	dsn, err := mysqlDSN("clawmacdo:pw@tcp(db:3306)/history")
	if err != nil {
		t.Fatalf("mysqlDSN: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn = %s", dsn)
	}
	if _, err := mysqlDSN("not a dsn"); err == nil {
		t.Fatalf("expected invalid dsn error")
	}
}
