package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pressroom/app/repositories"
)

// ErrCancelled is returned when the user declines a destructive step.
var ErrCancelled = errors.New("operation cancelled")

// Maintenance runs cache upkeep for the CLI. In and Out carry the prompts;
// Force skips them.
type Maintenance struct {
	Path  string
	In    io.Reader
	Out   io.Writer
	Force bool
	now   func() time.Time
}

func (m *Maintenance) ask(question string) bool {
	return m.Force || confirm(m.In, m.Out, question)
}

func (m *Maintenance) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// Clean removes the cache directory, logging the user out.
func (m *Maintenance) Clean() error {
	if _, err := os.Stat(m.Path); os.IsNotExist(err) {
		fmt.Fprintln(m.Out, "Cache is already clean (does not exist)")
		return nil
	}
	if !m.ask("Are you sure you want to clean the cache? You will be logged out.") {
		return ErrCancelled
	}
	if err := os.RemoveAll(m.Path); err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}
	fmt.Fprintln(m.Out, "Cache cleaned successfully")
	return nil
}

// Backup writes a badger backup of the cache into dir and returns its path.
func (m *Maintenance) Backup(dir string) (string, error) {
	if _, err := os.Stat(m.Path); os.IsNotExist(err) {
		return "", fmt.Errorf("no cache exists to backup at %s", m.Path)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	repo, err := repositories.NewRepository(m.Path)
	if err != nil {
		return "", err
	}
	defer repo.Close()

	file := filepath.Join(dir, fmt.Sprintf("backup_%d.db", m.clock().Unix()))
	f, err := os.OpenFile(file, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := repo.Backup(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	fmt.Fprintf(m.Out, "Cache backed up successfully to %s\n", file)
	return file, nil
}

// Restore replaces the cache with the contents of a backup file.
func (m *Maintenance) Restore(file string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("backup file does not exist: %s", file)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", file)
	}
	if _, err := os.Stat(m.Path); err == nil {
		if !m.ask("Existing cache found. Do you want to replace it?") {
			return ErrCancelled
		}
		if err := os.RemoveAll(m.Path); err != nil {
			return fmt.Errorf("failed to remove existing cache: %w", err)
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	repo, err := repositories.NewRepository(m.Path)
	if err != nil {
		return err
	}
	if err := repo.Restore(f); err != nil {
		repo.Close()
		return err
	}
	if err := repo.Close(); err != nil {
		return err
	}
	fmt.Fprintln(m.Out, "Cache restored successfully")
	return nil
}
