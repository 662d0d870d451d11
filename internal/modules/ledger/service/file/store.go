package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/pkg/logger"
)

// Store JSON-файл {"win_count":N,"loss_count":M}.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load нет файла или мусор: нули без ошибки.
func (s *Store) Load(_ context.Context) (service.Stats, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return service.Stats{}, nil
		}
		return service.Stats{}, fmt.Errorf("file.Load: %w", err)
	}

	var st service.Stats
	if err := sonic.Unmarshal(data, &st); err != nil {
		logger.Warn("[LEDGER] %s is corrupt, reset to zero: %v", s.path, err)
		return service.Stats{}, nil
	}
	if st.WinCount < 0 || st.LossCount < 0 {
		logger.Warn("[LEDGER] %s has negative counters, reset to zero", s.path)
		return service.Stats{}, nil
	}
	return st, nil
}

// Save через временный файл и rename, чтобы не оставить полузаписанный json.
func (s *Store) Save(_ context.Context, st service.Stats) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("file.Save: %w", err)
		}
	}()

	data, err := sonic.Marshal(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
