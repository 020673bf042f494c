package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	errx "github.com/haggle-core-poc/server/internal/core/error"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

const (
	envStateFile = "env_state.json"
	metaFile     = "negotiation_meta.json"
	turnLogFile  = "negotiation_log.jsonl"
)

// FileStore keeps all durable artifacts under a single directory. Snapshot
// files are fully overwritten on every change; the turn log is append-only
// and never rewritten.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) SaveEnvironment(_ context.Context, env model.EnvironmentState) error {
	return s.overwriteJSON(envStateFile, env)
}

func (s *FileStore) SaveMeta(_ context.Context, meta Meta) error {
	return s.overwriteJSON(metaFile, meta)
}

func (s *FileStore) LoadMeta(_ context.Context) (Meta, error) {
	b, err := os.ReadFile(s.path(metaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, errx.WrapStorage(err)
	}

	var meta Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		// Corrupt meta degrades to "never recorded" rather than failing
		// the caller.
		logx.Warn().Err(err).Str("file", metaFile).Msg("corrupt meta state, treating as unset")
		return Meta{}, nil
	}
	return meta, nil
}

func (s *FileStore) AppendTurn(_ context.Context, rec *model.TurnRecord) error {
	return s.appendJSONL(rec)
}

func (s *FileStore) AppendItemChange(_ context.Context, rec model.ItemChangeRecord) error {
	return s.appendJSONL(rec)
}

func (s *FileStore) overwriteJSON(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), b, 0o644); err != nil {
		return errx.WrapStorage(err)
	}
	return nil
}

func (s *FileStore) appendJSONL(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal turn log record: %w", err)
	}

	f, err := os.OpenFile(s.path(turnLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errx.WrapStorage(err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return errx.WrapStorage(err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
