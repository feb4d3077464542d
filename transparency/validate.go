// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build transparency

package transparency

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	// Maintained set of TLD roots for any potential TLS client request
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/usbarmory/boot-transparency/artifact"
	"github.com/usbarmory/boot-transparency/policy"
	"github.com/usbarmory/boot-transparency/transparency"
)

// Validate applies boot-transparency validation (e.g. inclusion proof,
// boot policy and claims consistency) for the argument [Config] representing
// the boot artifacts.
// Returns error if the boot artifacts are not passing the validation.
func (b BootEntry) Validate(c *Config) (err error) {
	if c.Status == None {
		return
	}

	if len(b) == 0 {
		return fmt.Errorf("invalid boot entry")
	}

	for _, a := range b {
		if err = a.validHash(); err != nil {
			return
		}
	}

	if c.Root != nil {
		entryPath, err := c.Path(b)

		if err != nil {
			return fmt.Errorf("cannot load boot-transparency configuration, %v", err)
		}

		if err = c.load(entryPath); err != nil {
			return fmt.Errorf("cannot load boot-transparency configuration, %v", err)
		}
	}

	te, err := transparency.GetEngine(transparency.Sigsum)

	if err != nil {
		return fmt.Errorf("unable to get transparency engine, %v", err)
	}

	if err = te.SetKey(c.LogKey, c.SubmitKey); err != nil {
		return fmt.Errorf("unable to set log and submitter keys, %v", err)
	}

	if err = te.SetWitnessPolicy(c.WitnessPolicy); err != nil {
		return fmt.Errorf("unable to set witness policy, %v", err)
	}

	format, statement, proof, probe, _, err := transparency.ParseProofBundle(c.ProofBundle)

	if err != nil {
		return fmt.Errorf("unable to parse the proof bundle, %v", err)
	}

	if format != transparency.Sigsum {
		return fmt.Errorf("proof bundle format doesn't match the transparency engine")
	}

	// the inclusion proof is fetched from the log when online
	if c.Status == Online {
		if proof, err = te.GetProof(statement, probe); err != nil {
			return
		}
	}

	if err = te.VerifyProof(statement, proof, nil); err != nil {
		return
	}

	requirements, err := policy.ParseRequirements(c.BootPolicy)

	if err != nil {
		return
	}

	claims, err := policy.ParseStatement(statement)

	if err != nil {
		return
	}

	if err = b.validateProofHashes(claims); err != nil {
		return
	}

	return policy.Validate(requirements, claims)
}

func (b BootEntry) validateProofHashes(s *policy.Statement) (err error) {
	for _, a := range b {
		if err = a.validateProofHash(s); err != nil {
			return err
		}
	}

	return
}

// validateProofHash matches the loaded artifact hash against the one
// claimed in the proof bundle statement.
func (a Artifact) validateProofHash(s *policy.Statement) (err error) {
	var h artifact.Handler

	for _, claimed := range s.Artifacts {
		if a.Category != claimed.Category {
			continue
		}

		if h, err = artifact.GetHandler(a.Category); err != nil {
			return
		}

		requirements, _ := json.Marshal(map[string]string{"file_hash": hex.EncodeToString(a.Hash)})

		r, err := h.ParseRequirements(requirements)

		if err != nil {
			return err
		}

		c, err := h.ParseClaims([]byte(claimed.Claims))

		if err != nil {
			return err
		}

		if err = h.Validate(r, c); err != nil {
			return fmt.Errorf("%w for artifact category %d, hash %q", ErrHashMismatch, a.Category, hex.EncodeToString(a.Hash))
		}

		return nil
	}

	return fmt.Errorf("artifact category %d not present in the proof bundle", a.Category)
}
