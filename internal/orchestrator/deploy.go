// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/cloudinit"
	"github.com/clawmacdo/clawmacdo/internal/credentials"
	"github.com/clawmacdo/clawmacdo/internal/keys"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/poll"
	"github.com/clawmacdo/clawmacdo/internal/provider"
	"github.com/clawmacdo/clawmacdo/internal/provision"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// DeployParams describe a new gateway host.
type DeployParams struct {
	// ID is generated when empty.
	ID string
	// Hostname defaults to openclaw-<first 8 chars of ID>.
	Hostname string
	Region   string
	Size     string

	Credentials model.Credentials
	// BackupPath, when set, is restored onto the new host.
	BackupPath string

	EnableBackups    bool
	Tailscale        bool
	TailscaleAuthKey security.Secret
}

func (p *DeployParams) normalize() error {
	if p.ID == "" {
		p.ID = model.NewDeployID()
	}
	if p.Hostname == "" {
		p.Hostname = model.DefaultHostname(p.ID)
	}
	var missing []string
	if strings.TrimSpace(p.Region) == "" {
		missing = append(missing, "region")
	}
	if strings.TrimSpace(p.Size) == "" {
		missing = append(missing, "size")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, " and "))
	}
	if p.Credentials.AnthropicAPIKey.IsEmpty() {
		return &apperr.CredentialError{Field: "ANTHROPIC_API_KEY", Reason: "required"}
	}
	return nil
}

// Deploy runs the full pipeline from Init to RecordPersisted. The record
// is saved only after the gateway is confirmed running; on any failure no
// record exists and the returned error is a *apperr.StageError.
func (o *Orchestrator) Deploy(ctx context.Context, p DeployParams) (model.DeployRecord, error) {
	pl := &pipeline{o: o}
	if err := pl.stage(ctx, model.StageInit, func() error { return o.validate(&p) }); err != nil {
		return model.DeployRecord{}, err
	}
	return o.deploy(ctx, pl, p)
}

// validate checks everything that can be checked without creating
// resources: required values, malformed credentials and the backup archive.
func (o *Orchestrator) validate(p *DeployParams) error {
	if err := o.needProvider(); err != nil {
		return err
	}
	if o.executor == nil {
		return errors.New("no remote executor configured")
	}
	if err := p.normalize(); err != nil {
		return err
	}
	if _, _, err := credentials.Sanitize(p.Credentials); err != nil {
		return err
	}
	if p.BackupPath != "" {
		if _, err := o.archives.Verify(p.BackupPath); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) deploy(ctx context.Context, pl *pipeline, p DeployParams) (model.DeployRecord, error) {
	var (
		kp      model.KeyPair
		key     model.SSHKey
		droplet model.Droplet
		sess    remote.Session
		record  model.DeployRecord
	)
	defer func() {
		if sess != nil {
			_ = sess.Close()
		}
	}()

	o.reporter.Reportf("Deploying %s (%s, %s)", p.Hostname, p.Region, p.Size)

	err := pl.stage(ctx, model.StageKeysGenerated, func() error {
		var err error
		kp, err = o.keys.Generate(p.Hostname)
		if err == nil {
			o.reporter.Reportf("Key saved: %s", kp.PrivateKeyPath)
		}
		return err
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageKeyUploaded, func() error {
		var err error
		key, err = o.provider.UploadKey(ctx, model.ProviderKeyName(p.Hostname), kp.PublicKey)
		if err == nil {
			o.reporter.Reportf("Key ID %d, fingerprint %s", key.ID, key.Fingerprint)
		}
		return err
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageDropletRequested, func() error {
		userData, err := cloudinit.Render(o.CloudInit)
		if err != nil {
			return err
		}
		droplet, err = o.provider.CreateDroplet(ctx, model.DropletSpec{
			Name:          p.Hostname,
			Region:        p.Region,
			Size:          p.Size,
			Image:         o.Image,
			SSHKeyID:      key.ID,
			UserData:      userData,
			Tags:          []string{model.DropletTag},
			EnableBackups: p.EnableBackups,
		})
		if err != nil {
			return err
		}
		pl.dropletID = droplet.ID
		o.reporter.Reportf("Droplet created: ID %d", droplet.ID)
		return nil
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageDropletActive, func() error {
		return poll.Until(ctx, o.pollOptions(model.StageDropletActive, o.timeouts.DropletActive), func(ctx context.Context) (bool, error) {
			d, err := o.provider.GetDroplet(ctx, droplet.ID)
			if err != nil {
				if provider.Temporary(err) {
					return false, err
				}
				return false, poll.Fatal(err)
			}
			if !d.Active() || d.PublicIP == "" {
				return false, nil
			}
			droplet = d
			return true, nil
		})
	})
	if err != nil {
		return record, err
	}
	o.reporter.Reportf("Droplet active at %s", droplet.PublicIP)

	var target remote.Target
	err = pl.stage(ctx, model.StageSSHReady, func() error {
		signer, err := keys.LoadSigner(kp.PrivateKeyPath, nil)
		if err != nil {
			return err
		}
		target = remote.Target{Host: droplet.PublicIP, User: "root", Signer: signer}
		sess, err = o.connect(ctx, model.StageSSHReady, o.timeouts.SSHReady, target)
		return err
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageProvisioningComplete, func() error {
		check := cloudinit.ReadinessCheck(o.CloudInit.Sentinel)
		return poll.Until(ctx, o.pollOptions(model.StageProvisioningComplete, o.timeouts.Provisioning), func(ctx context.Context) (bool, error) {
			if sess == nil {
				s, err := o.executor.Connect(ctx, target)
				if err != nil {
					return false, retryableConnect(err)
				}
				sess = s
			}
			res, err := sess.Exec(ctx, check)
			if err != nil {
				if ctx.Err() == nil {
					// Connection lost; dial again on the next attempt.
					logging.Debugf("readiness check on %s: %v", target.Host, err)
					_ = sess.Close()
					sess = nil
				}
				return false, err
			}
			return res.OK() && strings.Contains(res.Stdout, "done"), nil
		})
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageBackupTransferred, func() error {
		if p.BackupPath == "" {
			o.reporter.Reportf("No backup selected, skipping restore")
			return nil
		}
		if err := provision.Restore(ctx, sess, p.BackupPath); err != nil {
			return err
		}
		o.reporter.Reportf("Backup restored from %s", p.BackupPath)
		return nil
	})
	if err != nil {
		return record, err
	}

	var creds model.Credentials
	err = pl.stage(ctx, model.StageConfigWritten, func() error {
		var warnings []credentials.Warning
		var err error
		creds, warnings, err = credentials.Sanitize(p.Credentials)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			o.reporter.Warnf("%s", w)
		}
		plan := provision.Host(provision.Options{
			PublicKey:        kp.PublicKey,
			Credentials:      creds,
			Tailscale:        p.Tailscale,
			TailscaleAuthKey: p.TailscaleAuthKey,
		})
		return provision.Apply(ctx, sess, plan, o.reportStep)
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageGatewayStarted, func() error {
		if err := provision.Apply(ctx, sess, provision.Gateway(creds), o.reportStep); err != nil {
			return err
		}
		if chain := provision.FailoverChain(creds); len(chain) > 1 {
			o.reporter.Reportf("Model failover: %s", strings.Join(chain, " -> "))
		}
		return nil
	})
	if err != nil {
		return record, err
	}

	err = pl.stage(ctx, model.StageRecordPersisted, func() error {
		r := model.DeployRecord{
			ID:                p.ID,
			DropletID:         droplet.ID,
			Hostname:          p.Hostname,
			IPAddress:         droplet.PublicIP,
			Region:            p.Region,
			Size:              p.Size,
			SSHKeyPath:        kp.PrivateKeyPath,
			SSHKeyFingerprint: kp.Fingerprint,
			BackupRestored:    p.BackupPath,
			CreatedAt:         o.clock.Now().UTC(),
		}
		path, err := o.records.Save(r)
		if err != nil {
			return err
		}
		record = r
		o.reporter.Reportf("Saved: %s", path)
		return nil
	})
	return record, err
}

func (o *Orchestrator) reportStep(st provision.Step) {
	o.reporter.Reportf("  %s: %s", st.Phase, st.Name)
}

// connect dials t until it answers. The wait is bounded by timeout on the
// orchestrator clock and ends in a *apperr.TimeoutError for stage; failures
// other than refused, timed out or transport errors end it at once.
func (o *Orchestrator) connect(ctx context.Context, stage model.Stage, timeout time.Duration, t remote.Target) (remote.Session, error) {
	var sess remote.Session
	err := poll.Until(ctx, o.pollOptions(stage, timeout), func(ctx context.Context) (bool, error) {
		s, err := o.executor.Connect(ctx, t)
		if err != nil {
			return false, retryableConnect(err)
		}
		sess = s
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// retryableConnect passes host-still-booting errors through and marks
// everything else fatal for poll.Until.
func retryableConnect(err error) error {
	var ce *apperr.RemoteConnectError
	if errors.As(err, &ce) && (ce.NotYet() || ce.Kind == apperr.ConnectTransport) {
		return err
	}
	return poll.Fatal(err)
}
