// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package transparency implements an interface to the
// boot-transparency library functions to ease boot bundle
// validation.
package transparency

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// Represents the status of the boot transparency functionality.
type Status int

// Represents boot transparency status codes.
const (
	// Boot transparency disabled.
	None Status = iota

	// Boot transparency enabled in offline mode.
	Offline

	// Boot transparency enabled in online mode.
	Online
)

var statusName = map[Status]string{
	None:    "none",
	Offline: "offline",
	Online:  "online",
}

// Resolve resolves Status codes into a human-readable strings.
func (s Status) Resolve() string {
	return statusName[s]
}

// ParseStatus converts a human-readable status to its Status code.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusName {
		if n == name {
			return s, nil
		}
	}

	return None, fmt.Errorf("invalid boot transparency status %q", name)
}

// Boot transparency configuration root directory and filenames.
const (
	transparencyRoot = `transparency`

	bootPolicy    = `policy.json`
	witnessPolicy = `trust_policy`
	proofBundle   = `proof-bundle.json`
	submitKey     = `submit-key.pub`
	logKey        = `log-key.pub`
)

// Config represents the configuration for the boot transparency functionality.
type Config struct {
	// Status represents the status of the boot transparency functionality.
	Status Status

	// Root represents the file system holding per boot entry
	// configurations, when set the configuration files are loaded
	// automatically during artifact(s) validation.
	Root fs.FS

	// BootPolicy represents the boot policy in JSON format
	// following the policy syntax supported by boot-transparency library.
	BootPolicy []byte

	// WitnessPolicy represents the witness policy following
	// the Sigsum plaintext witness policy format.
	WitnessPolicy []byte

	// SubmitKey represents the log submitter public key in OpenSSH format.
	SubmitKey []byte

	// LogKey represents the log public key in OpenSSH format.
	LogKey []byte

	// ProofBundle represents the proof bundle in JSON format
	// following the proof bundle format supported by boot-transparency library.
	ProofBundle []byte
}

// Path returns a unique configuration path for a given set of
// artifacts (i.e. boot entry).
// Returns error if one of the artifacts does not include a valid
// SHA-256 hash.
func (c *Config) Path(b BootEntry) (entryPath string, err error) {
	if len(b) == 0 {
		return "", fmt.Errorf("cannot build configuration path, got an empty boot entry")
	}

	artifacts := make(BootEntry, len(b))
	copy(artifacts, b)

	// Sort the passed artifacts, by their Category, to ensure
	// consistency in the way the entry path is build.
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].Category < artifacts[j].Category
	})

	entryPath = transparencyRoot

	for _, a := range artifacts {
		if err = a.validHash(); err != nil {
			return "", fmt.Errorf("cannot build configuration path, %w", err)
		}

		entryPath = path.Join(entryPath, hex.EncodeToString(a.Hash))
	}

	return
}

// load reads the transparency configuration files from the configuration
// root. The entry argument allows per-bundle configurations.
func (c *Config) load(entryPath string) (err error) {
	assets := map[string]*[]byte{
		bootPolicy:    &c.BootPolicy,
		witnessPolicy: &c.WitnessPolicy,
		submitKey:     &c.SubmitKey,
		logKey:        &c.LogKey,
		proofBundle:   &c.ProofBundle,
	}

	for filename, dst := range assets {
		if *dst, err = fs.ReadFile(c.Root, path.Join(entryPath, filename)); err != nil {
			return fmt.Errorf("cannot load configuration file: %v", filename)
		}
	}

	return
}
