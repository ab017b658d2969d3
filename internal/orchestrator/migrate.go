// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/clawmacdo/clawmacdo/internal/archive"
	"github.com/clawmacdo/clawmacdo/internal/keys"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/provision"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// SourceHost is the existing host a migration copies from.
type SourceHost struct {
	Host string
	Port int
	User string
	// KeyPath is the private key for Host. When empty, or when the key is
	// rejected, a running SSH agent is tried.
	KeyPath    string
	Passphrase security.Secret
}

// MigrateParams describe a source host and the target to create.
// Target.BackupPath is replaced by the archive pulled from the source.
type MigrateParams struct {
	Source SourceHost
	Target DeployParams
}

// Migrate backs up the source host's gateway configuration, downloads and
// verifies it, then deploys a new host restoring that backup. Nothing is
// created at the provider until the archive is present locally.
func (o *Orchestrator) Migrate(ctx context.Context, p MigrateParams) (model.DeployRecord, error) {
	pl := &pipeline{o: o}
	target := p.Target
	target.BackupPath = ""
	if err := pl.stage(ctx, model.StageInit, func() error {
		if p.Source.Host == "" {
			return errors.New("source host is required")
		}
		return o.validate(&target)
	}); err != nil {
		return model.DeployRecord{}, err
	}

	var backup model.BackupArchive
	if err := pl.stage(ctx, model.StageSourceBackup, func() error {
		var err error
		backup, err = o.pullSourceBackup(ctx, p.Source)
		return err
	}); err != nil {
		return model.DeployRecord{}, err
	}

	target.BackupPath = backup.Path
	return o.deploy(ctx, pl, target)
}

func (o *Orchestrator) pullSourceBackup(ctx context.Context, src SourceHost) (model.BackupArchive, error) {
	t := remote.Target{Host: src.Host, Port: src.Port, User: src.User, AllowAgent: true}
	if t.User == "" {
		t.User = "root"
	}
	if src.KeyPath != "" {
		signer, err := keys.LoadSigner(src.KeyPath, []byte(src.Passphrase.Reveal()))
		if err != nil {
			return model.BackupArchive{}, fmt.Errorf("source key %s: %w", src.KeyPath, err)
		}
		t.Signer = signer
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeouts.SourceConnect)
	sess, err := o.executor.Connect(cctx, t)
	cancel()
	if err != nil {
		return model.BackupArchive{}, err
	}
	defer sess.Close()
	o.reporter.Reportf("Connected to source %s", src.Host)

	if err := os.MkdirAll(o.archives.Dir(), 0o700); err != nil {
		return model.BackupArchive{}, fmt.Errorf("create backups directory: %w", err)
	}
	local := o.archives.NewPath(archive.MigratePrefix)
	remotePath := path.Join("/tmp", filepath.Base(local))

	if _, err := remote.Run(ctx, sess, provision.SourceBackupCommand(remotePath)); err != nil {
		return model.BackupArchive{}, fmt.Errorf("create backup on source: %w", err)
	}
	defer func() {
		if _, err := remote.Run(context.WithoutCancel(ctx), sess, provision.CleanupCommand(remotePath)); err != nil {
			logging.Warnf("could not remove %s on %s: %v", remotePath, src.Host, err)
		}
	}()

	if err := sess.CopyFrom(ctx, remotePath, local); err != nil {
		return model.BackupArchive{}, fmt.Errorf("download backup: %w", err)
	}
	backup, err := o.archives.Verify(local)
	if err != nil {
		_ = os.Remove(local)
		return model.BackupArchive{}, err
	}
	o.reporter.Reportf("Source backup saved: %s", local)
	return backup, nil
}
