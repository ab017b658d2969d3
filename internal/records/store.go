// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package records persists completed deploys as one JSON file each.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// Store owns the record files in one directory.
type Store struct {
	dir string
}

// NewStore returns a Store for dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes a new record. Records are create-once; saving an id that
// already exists fails.
func (s *Store) Save(r model.DeployRecord) (string, error) {
	if r.ID == "" || strings.ContainsAny(r.ID, `/\`) {
		return "", fmt.Errorf("invalid record id %q", r.ID)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create deploys directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	p := s.path(r.ID)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create record %s: %w", p, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("write record %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", err
	}
	return p, nil
}

// Get loads the record with the given id.
func (s *Store) Get(id string) (model.DeployRecord, error) {
	var r model.DeployRecord
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return r, &apperr.NotFoundError{What: "deploy record", Name: id}
	}
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode record %s: %w", id, err)
	}
	return r, nil
}

// List returns every readable record, newest first. Unreadable files are
// logged and skipped.
func (s *Store) List() ([]model.DeployRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []model.DeployRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := s.Get(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			logging.Warnf("skipping deploy record %s: %v", e.Name(), err)
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// FindByHostname returns the newest record for a droplet name.
func (s *Store) FindByHostname(hostname string) (model.DeployRecord, error) {
	all, err := s.List()
	if err != nil {
		return model.DeployRecord{}, err
	}
	for _, r := range all {
		if r.Hostname == hostname {
			return r, nil
		}
	}
	return model.DeployRecord{}, &apperr.NotFoundError{What: "deploy record", Name: hostname}
}
