// Package backup shells out to the postgres client tools for dump and
// restore of the whole database.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"asset-inventory-backend/config"
)

// Info describes one backup file on disk.
type Info struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager creates, lists, restores and prunes database dumps.
type Manager struct {
	cfg config.BackupConfig
	dsn string
}

// NewManager prepares the backup directory.
func NewManager(cfg config.BackupConfig, dsn string) (*Manager, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup dir: %w", err)
	}
	return &Manager{cfg: cfg, dsn: dsn}, nil
}

// Create runs pg_dump into a timestamped file and prunes old dumps past
// the retention count. It returns the created file's info.
func (m *Manager) Create(ctx context.Context) (*Info, error) {
	name := fmt.Sprintf("backup_%s.sql", time.Now().Format("20060102_150405"))
	path := filepath.Join(m.cfg.Dir, name)

	cmd := exec.CommandContext(ctx, m.cfg.PGDumpPath,
		"--dbname", m.dsn,
		"--no-owner",
		"--clean", "--if-exists",
		"--file", path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("pg_dump failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	if err := m.prune(); err != nil {
		return nil, err
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Info{Name: name, SizeBytes: st.Size(), CreatedAt: st.ModTime()}, nil
}

// Restore feeds a previously created dump back through psql. The name must
// refer to a file inside the backup directory.
func (m *Manager) Restore(ctx context.Context, name string) error {
	path, err := m.resolve(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, m.cfg.PSQLPath,
		"--dbname", m.dsn,
		"--set", "ON_ERROR_STOP=on",
		"--file", path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psql restore failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// List returns all stored dumps, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: e.Name(), SizeBytes: st.Size(), CreatedAt: st.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

// Open returns a reader for downloading a dump.
func (m *Manager) Open(name string) (*os.File, error) {
	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// resolve validates the name and maps it into the backup directory,
// refusing anything that could escape it.
func (m *Manager) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".sql") {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	path := filepath.Join(m.cfg.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup %q not found", name)
	}
	return path, nil
}

func (m *Manager) prune() error {
	infos, err := m.List()
	if err != nil {
		return err
	}
	for i := m.cfg.KeepLatestN; i < len(infos); i++ {
		if err := os.Remove(filepath.Join(m.cfg.Dir, infos[i].Name)); err != nil {
			return err
		}
	}
	return nil
}
