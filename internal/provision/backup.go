// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"

	"github.com/clawmacdo/clawmacdo/internal/remote"
)

// RemoteBackupPath is where an uploaded backup lands before extraction.
const RemoteBackupPath = "/tmp/openclaw_backup.tar.gz"

// restoreCommand unpacks the archive's openclaw/ tree into /root/.openclaw;
// RelocateRestored later moves it into the openclaw user's home.
const restoreCommand = "rm -rf /tmp/openclaw && mkdir -p /root/.openclaw && cd /tmp && " +
	"tar xzf " + RemoteBackupPath + " && test -d /tmp/openclaw && " +
	"cp -a /tmp/openclaw/. /root/.openclaw/ && rm -rf /tmp/openclaw " + RemoteBackupPath

// RelocateRestored moves a restored configuration into the openclaw home.
const RelocateRestored = "if [ -d /root/.openclaw ]; then mkdir -p " + ConfigDir +
	" && cp -a /root/.openclaw/. " + ConfigDir + "/ && chown -R " + User + ":" + User + " " + ConfigDir +
	" && chmod 700 " + ConfigDir + " && rm -rf /root/.openclaw; fi"

// Restore uploads the local archive and unpacks it on the host.
func Restore(ctx context.Context, s remote.Session, archivePath string) error {
	if err := s.CopyTo(ctx, archivePath, RemoteBackupPath); err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}
	if _, err := remote.Run(ctx, s, restoreCommand); err != nil {
		return fmt.Errorf("extract backup: %w", err)
	}
	return nil
}

// SourceBackupCommand archives the gateway configuration on a source host
// into remotePath with entries under openclaw/. The openclaw user's home
// wins over root's when both exist.
func SourceBackupCommand(remotePath string) string {
	p := shellquote.Join(remotePath)
	return `src=/root; if [ -d ` + ConfigDir + ` ]; then src=` + Home + `; fi; ` +
		`if [ ! -d "$src/.openclaw" ]; then echo "no .openclaw directory on source host" >&2; exit 3; fi; ` +
		`tar czf ` + p + ` -C "$src" --transform 's,^\.openclaw,openclaw,' .openclaw && test -s ` + p
}

// CleanupCommand removes a temporary remote file.
func CleanupCommand(remotePath string) string {
	return "rm -f " + shellquote.Join(remotePath)
}
