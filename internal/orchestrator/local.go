// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/archive"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// Backup archives the local gateway configuration directory, plus the
// macOS LaunchAgent plist when one exists.
func (o *Orchestrator) Backup() (model.BackupArchive, error) {
	var extras []archive.Extra
	if o.paths.LaunchAgentPlist != "" {
		if _, err := os.Stat(o.paths.LaunchAgentPlist); err == nil {
			extras = append(extras, archive.Extra{Name: archive.LaunchAgentEntry, Path: o.paths.LaunchAgentPlist})
		}
	}
	b, err := o.archives.Create(o.paths.SourceDir, extras...)
	if err != nil {
		return model.BackupArchive{}, err
	}
	o.reporter.Reportf("Backup saved: %s", b.Path)
	return b, nil
}

// ListBackups returns the archives in the backups directory, newest first.
// A missing directory is an empty list.
func (o *Orchestrator) ListBackups() ([]model.BackupArchive, error) {
	return o.archives.List()
}

// ErrDestinationNotEmpty is returned by Restore when the configuration
// directory already has content and force was not given.
var ErrDestinationNotEmpty = errors.New("destination is not empty")

// Restore unpacks the openclaw/ tree of a local archive into the
// configuration directory.
func (o *Orchestrator) Restore(archivePath string, force bool) (model.BackupArchive, error) {
	b, err := o.archives.Verify(archivePath)
	if err != nil {
		return model.BackupArchive{}, err
	}
	dest := o.paths.SourceDir
	if !force {
		entries, err := os.ReadDir(dest)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return model.BackupArchive{}, err
		case len(entries) > 0:
			return model.BackupArchive{}, fmt.Errorf("%s: %w (use --force to overwrite)", dest, ErrDestinationNotEmpty)
		}
	}
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return model.BackupArchive{}, err
	}
	if err := o.archives.ExtractPrefix(archivePath, archive.ConfigPrefix, dest); err != nil {
		return model.BackupArchive{}, err
	}
	o.reporter.Reportf("Restored %d files into %s", b.Files, dest)
	return b, nil
}

// HostStatus is a managed droplet and, when this machine deployed it, its
// deploy record.
type HostStatus struct {
	Droplet model.Droplet
	Record  *model.DeployRecord
}

// Status lists the droplets carrying the managed tag, sorted by name.
func (o *Orchestrator) Status(ctx context.Context) ([]HostStatus, error) {
	if err := o.needProvider(); err != nil {
		return nil, err
	}
	droplets, err := o.provider.ListDroplets(ctx, model.DropletTag)
	if err != nil {
		return nil, err
	}
	sort.Slice(droplets, func(i, j int) bool {
		if droplets[i].Name != droplets[j].Name {
			return droplets[i].Name < droplets[j].Name
		}
		return droplets[i].ID < droplets[j].ID
	})
	out := make([]HostStatus, 0, len(droplets))
	for _, d := range droplets {
		if !d.HasTag(model.DropletTag) {
			continue
		}
		hs := HostStatus{Droplet: d}
		if r, err := o.records.FindByHostname(d.Name); err == nil {
			hs.Record = &r
		} else if !apperr.IsNotFound(err) {
			return nil, err
		}
		out = append(out, hs)
	}
	return out, nil
}

// Records lists saved deploy records, newest first.
func (o *Orchestrator) Records() ([]model.DeployRecord, error) {
	return o.records.List()
}
