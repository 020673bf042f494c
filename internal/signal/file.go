package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	errx "github.com/haggle-core-poc/server/internal/core/error"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

const (
	triggerFile = "face_trigger.txt"
	resetFile   = "time_reset.txt"
	resultFile  = "negotiation_result.json"
)

// FileChannel exchanges signals with the worker through shared files in a
// well-known directory: a trigger file and a reset file written by this
// process, and a result file written by the worker. Every write is a full
// overwrite, so only the latest signal in either direction survives.
type FileChannel struct {
	dir string
}

func NewFileChannel(dir string) (*FileChannel, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create signal dir: %w", err)
	}
	return &FileChannel{dir: dir}, nil
}

func (c *FileChannel) PublishTrigger(_ context.Context) error {
	stamp := time.Now().Format(time.RFC3339)
	if err := os.WriteFile(filepath.Join(c.dir, triggerFile), []byte(stamp), 0o644); err != nil {
		return errx.WrapStorage(err)
	}
	return nil
}

func (c *FileChannel) PublishItemReset(_ context.Context, itemID string) error {
	body := fmt.Sprintf("reset at %s for item %s", time.Now().Format(time.RFC3339), itemID)
	if err := os.WriteFile(filepath.Join(c.dir, resetFile), []byte(body), 0o644); err != nil {
		return errx.WrapStorage(err)
	}
	return nil
}

func (c *FileChannel) ReadLatestResult(_ context.Context) (*model.FaceResult, error) {
	b, err := os.ReadFile(filepath.Join(c.dir, resultFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapStorage(err)
	}

	var res model.FaceResult
	if err := json.Unmarshal(b, &res); err != nil {
		logx.Warn().Err(err).Str("file", resultFile).Msg("malformed analysis result, treating as absent")
		return nil, nil
	}
	return &res, nil
}

var _ Channel = (*FileChannel)(nil)
