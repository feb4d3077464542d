// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gliderlabs/ssh"
	"golang.org/x/term"

	"github.com/usbarmory/go-kexec/cmd"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/shell"
)

// serial, when set, replaces standard input and output as console
var serial io.ReadWriter

type stdio struct {
	io.Reader
	io.Writer
}

func startConsole() error {
	var rw io.ReadWriter = stdio{os.Stdin, os.Stdout}

	if serial != nil {
		rw = serial
	} else if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)

		if err != nil {
			return fmt.Errorf("could not set raw mode, %v", err)
		}

		defer term.Restore(fd, state)
	}

	iface := &shell.Interface{
		Banner:     cmd.Banner,
		ReadWriter: rw,
		VT100:      true,
	}

	iface.Start()

	return nil
}

func authorizedKeys(path string) (keys []ssh.PublicKey, err error) {
	buf, err := os.ReadFile(path)

	if err != nil {
		return
	}

	for len(buf) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(buf)

		if err != nil {
			return nil, fmt.Errorf("could not parse %s, %v", path, err)
		}

		keys = append(keys, key)
		buf = rest
	}

	if len(keys) == 0 {
		return nil, errors.New("no authorized keys")
	}

	return
}

func startSSH(s *config.Settings) (err error) {
	var opts []ssh.Option

	if len(s.SSHHostKey) > 0 {
		opts = append(opts, ssh.HostKeyFile(s.SSHHostKey))
	}

	if len(s.SSHAuthorizedKeys) > 0 {
		keys, err := authorizedKeys(s.SSHAuthorizedKeys)

		if err != nil {
			return err
		}

		opts = append(opts, ssh.PublicKeyAuth(func(_ ssh.Context, key ssh.PublicKey) bool {
			for _, k := range keys {
				if ssh.KeysEqual(k, key) {
					return true
				}
			}

			return false
		}))
	}

	handler := func(sess ssh.Session) {
		log.Printf("ssh session from %s (%s)", sess.RemoteAddr(), sess.User())

		iface := &shell.Interface{
			Banner:     cmd.Banner,
			ReadWriter: sess,
			VT100:      true,
		}

		iface.Start()
	}

	log.Printf("starting ssh console on %s", s.SSH)

	return ssh.ListenAndServe(s.SSH, handler, opts...)
}
