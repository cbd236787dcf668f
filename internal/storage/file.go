package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hotkeyd/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.targets.json (full snapshot, rewritten on change)
//   - <prefix>.audit.jsonl  (append-only JSON Lines)
//
// The target table is small (dozens of entries at most), so a full snapshot
// rewrite per mutation is cheaper than maintaining a journal.
type fileStore struct {
	log logx.Logger

	targetsPath string
	auditFile   *os.File

	targets map[string]TargetRecord
}

type auditLine struct {
	At      string `json:"at"`
	Binding string `json:"binding"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"err,omitempty"`
	TookMS  int64  `json:"took_ms"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	prefix := strings.TrimSpace(cfg.Path)
	if prefix == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{
		log:         log,
		targetsPath: prefix + ".targets.json",
		targets:     map[string]TargetRecord{},
	}

	if err := st.loadTargets(); err != nil {
		return nil, err
	}

	af, err := os.OpenFile(prefix+".audit.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	st.auditFile = af

	return st, nil
}

func (s *fileStore) loadTargets() error {
	b, err := os.ReadFile(s.targetsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var list []TargetRecord
	if err := json.Unmarshal(b, &list); err != nil {
		// A corrupt snapshot should not brick startup; start empty and warn.
		s.log.Warn("target snapshot unreadable; starting empty",
			logx.String("path", s.targetsPath), logx.Err(err))
		return nil
	}
	for _, t := range list {
		if t.Name != "" {
			s.targets[t.Name] = t
		}
	}
	return nil
}

func (s *fileStore) snapshotTargets() error {
	list := make([]TargetRecord, 0, len(s.targets))
	for _, t := range s.targets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.targetsPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.targetsPath)
}

func (s *fileStore) PutTarget(ctx context.Context, t TargetRecord) error {
	if s == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("target name is required")
	}
	s.targets[t.Name] = t
	return s.snapshotTargets()
}

func (s *fileStore) DeleteTarget(ctx context.Context, name string) error {
	if s == nil {
		return ErrDisabled
	}
	if _, ok := s.targets[name]; !ok {
		return nil
	}
	delete(s.targets, name)
	return s.snapshotTargets()
}

func (s *fileStore) ListTargets(ctx context.Context) ([]TargetRecord, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	list := make([]TargetRecord, 0, len(s.targets))
	for _, t := range s.targets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *fileStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if s == nil || s.auditFile == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	line := auditLine{
		At:      e.At.Format(time.RFC3339Nano),
		Binding: e.Binding,
		Action:  e.Action,
		Target:  e.Target,
		OK:      e.OK,
		Error:   e.Error,
		TookMS:  e.TookMS,
	}
	b, err := json.Marshal(line)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = s.auditFile.Write(b)
	return err
}

func (s *fileStore) Close() error {
	if s == nil || s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}
