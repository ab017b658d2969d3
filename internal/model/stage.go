// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// Stage is the deploy pipeline cursor. Errors are attributed to the stage
// that was being entered when they happened.
type Stage int

const (
	StageInit Stage = iota
	StageSourceBackup
	StageKeysGenerated
	StageKeyUploaded
	StageDropletRequested
	StageDropletActive
	StageSSHReady
	StageProvisioningComplete
	StageBackupTransferred
	StageConfigWritten
	StageGatewayStarted
	StageRecordPersisted
)

var stageNames = map[Stage]string{
	StageInit:                 "Init",
	StageSourceBackup:         "SourceBackup",
	StageKeysGenerated:        "KeysGenerated",
	StageKeyUploaded:          "KeyUploaded",
	StageDropletRequested:     "DropletRequested",
	StageDropletActive:        "DropletActive",
	StageSSHReady:             "SshReady",
	StageProvisioningComplete: "ProvisioningComplete",
	StageBackupTransferred:    "BackupTransferred",
	StageConfigWritten:        "ConfigWritten",
	StageGatewayStarted:       "GatewayStarted",
	StageRecordPersisted:      "RecordPersisted",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "Unknown"
}

// DeployStages lists the fresh-deploy stages in pipeline order.
// StageSourceBackup only runs in front of them during migrate.
func DeployStages() []Stage {
	return []Stage{
		StageInit,
		StageKeysGenerated,
		StageKeyUploaded,
		StageDropletRequested,
		StageDropletActive,
		StageSSHReady,
		StageProvisioningComplete,
		StageBackupTransferred,
		StageConfigWritten,
		StageGatewayStarted,
		StageRecordPersisted,
	}
}
