/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/config"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
)

// Artifact file names inside the working directory.
const (
	GroupPublicKeyFile  = "group.pub"
	IssuerKeyFile       = "issuer.key"
	CertificateFile     = "group.cert"
	SignerKeyFile       = "signer.pem"
	SignerPublicKeyFile = "signer.pub.pem"
	NonceFile           = "nonce"
	JoinRequestFile     = "join.req"
	SecretFile          = "member.secret"
	CredentialFile      = "member.cred"
	MemberKeyFile       = "member.key"
	DatabaseFile        = "issuer.db"
)

type Serializer interface {
	Serialize() ([]byte, error)
}

type Deserializer interface {
	Deserialize(raw []byte) error
}

// LoadConfig reads the configuration at path, or the defaults if path is empty,
// and initializes logging from it.
func LoadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(c.Logging.Spec, c.Logging.Format)
	return c, nil
}

// IssuerStorage keeps the issuer state across invocations: the in-memory
// default is replaced by a sqlite database in dir.
func IssuerStorage(c *config.Config, dir string) config.Storage {
	s := c.Storage
	if s.Type == "" || s.Type == config.MemoryStorage {
		s.Type = config.SQLiteStorage
		s.DataSource = "file:" + filepath.Join(dir, DatabaseFile)
	}
	return s
}

// ReadArtifact loads a serialized artifact from path into v.
func ReadArtifact(path string, v Deserializer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed reading [%s]", path)
	}
	if err := v.Deserialize(raw); err != nil {
		return errors.WithMessagef(err, "failed parsing [%s]", path)
	}
	return nil
}

// WriteArtifact serializes v to path. Existing files are not overwritten.
func WriteArtifact(path string, v Serializer, perm os.FileMode) error {
	raw, err := v.Serialize()
	if err != nil {
		return errors.Wrapf(err, "failed serializing [%s]", filepath.Base(path))
	}
	return WriteFile(path, raw, perm)
}

func WriteFile(path string, raw []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%s exists. Specify another output folder with -o", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed creating folder for [%s]", path)
	}
	if err := os.WriteFile(path, raw, perm); err != nil {
		return errors.Wrapf(err, "failed writing [%s]", path)
	}
	return nil
}

func ReadNonce(path string) (keys.Nonce, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return keys.Nonce{}, errors.Wrapf(err, "failed reading [%s]", path)
	}
	return keys.ParseNonce(strings.TrimSpace(string(raw)))
}

func WriteNonce(path string, nonce keys.Nonce) error {
	return WriteFile(path, []byte(nonce.String()+"\n"), 0644)
}

// ReadSecret loads the member secret f stored by WriteSecret.
func ReadSecret(e *emath.Engine, path string) (*math.Zr, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading [%s]", path)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrapf(emath.ErrMalformedEncoding, "member secret [%s]: %s", path, err)
	}
	f, err := e.DecodeZr(b)
	if err != nil {
		return nil, err
	}
	if !e.InRange(f) {
		return nil, errors.Wrapf(emath.ErrInvalidArgument, "member secret [%s] out of range", path)
	}
	return f, nil
}

func WriteSecret(e *emath.Engine, path string, f *math.Zr) error {
	return WriteFile(path, []byte(hex.EncodeToString(e.EncodeZr(f))+"\n"), 0600)
}
