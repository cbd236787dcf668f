package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotkeyd/pkg/logx"
)

func TestFileStoreTargetsRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := Config{Driver: "file", Path: filepath.Join(dir, "state")}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if err := st.PutTarget(ctx, TargetRecord{Name: "editor", Title: "*Visual Studio Code*"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.PutTarget(ctx, TargetRecord{Name: "browser", Title: "*Firefox*", Class: "Navigator"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Re-open and verify the snapshot survived.
	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	list, err := st.ListTargets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("targets = %d, want 2", len(list))
	}
	// Sorted by name: browser, editor.
	if list[0].Name != "browser" || list[0].Class != "Navigator" {
		t.Fatalf("unexpected first target: %+v", list[0])
	}
	if list[1].Name != "editor" || list[1].Title != "*Visual Studio Code*" {
		t.Fatalf("unexpected second target: %+v", list[1])
	}

	if err := st.DeleteTarget(ctx, "browser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = st.ListTargets(ctx)
	if len(list) != 1 || list[0].Name != "editor" {
		t.Fatalf("after delete: %+v", list)
	}
}

func TestFileStoreAuditAppend(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := Config{Driver: "file", Path: filepath.Join(dir, "state")}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	entries := []AuditEntry{
		{At: time.Unix(100, 0), Binding: "ctrl+alt+t", Action: "start_process", OK: true, TookMS: 12},
		{Binding: "ctrl+alt+q", Action: "window_close", Target: "editor", OK: false, Error: "no window matched"},
	}
	for _, e := range entries {
		if err := st.AppendAudit(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "state.audit.jsonl"))
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}
	defer f.Close()

	var lines []auditLine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var l auditLine
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("bad audit line %q: %v", sc.Text(), err)
		}
		lines = append(lines, l)
	}
	if len(lines) != 2 {
		t.Fatalf("audit lines = %d, want 2", len(lines))
	}
	if lines[0].Action != "start_process" || !lines[0].OK {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Error != "no window matched" || lines[1].OK {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
	// A zero At must have been stamped at append time.
	if lines[1].At == "" {
		t.Fatal("missing timestamp on second line")
	}
}

func TestOpenDisabledAndUnknownDrivers(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("disabled open = (%v, %v), want (nil, nil)", st, err)
	}
	if _, err := Open(Config{Driver: "bolt"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
