/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rng provides the random sources consumed by the protocol.
// Every source is an io.Reader that either fills the whole buffer or fails.
package rng

import (
	"crypto/rand"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"
)

// SeedSize is the size of a seed accepted by NewSeeded.
const SeedSize = chacha20.KeySize

// Default returns the operating system CSPRNG.
func Default() io.Reader {
	return rand.Reader
}

// Counter counts the calls and the bytes read from the wrapped reader.
type Counter struct {
	R     io.Reader
	calls atomic.Int64
	bytes atomic.Int64
}

// NewCounter wraps r.
func NewCounter(r io.Reader) *Counter {
	return &Counter{R: r}
}

func (c *Counter) Read(p []byte) (int, error) {
	c.calls.Add(1)
	n, err := c.R.Read(p)
	c.bytes.Add(int64(n))
	return n, err
}

// Calls returns the number of Read invocations.
func (c *Counter) Calls() int64 { return c.calls.Load() }

// Bytes returns the number of bytes read so far.
func (c *Counter) Bytes() int64 { return c.bytes.Load() }

// Locked serializes reads on a reader that is not safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	r  io.Reader
}

// NewLocked wraps r.
func NewLocked(r io.Reader) *Locked {
	return &Locked{r: r}
}

func (l *Locked) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return io.ReadFull(l.r, p)
}

// Seeded is a deterministic ChaCha20 keystream. It is meant for reproducible
// runs and test vectors, never for production keys.
type Seeded struct {
	cipher *chacha20.Cipher
}

// NewSeeded returns a deterministic reader keyed by seed.
func NewSeeded(seed []byte) (*Seeded, error) {
	if len(seed) != SeedSize {
		return nil, errors.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize keystream")
	}
	return &Seeded{cipher: c}, nil
}

// MustNewSeeded is like NewSeeded but panics on error.
func MustNewSeeded(seed []byte) *Seeded {
	s, err := NewSeeded(seed)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Seeded) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}

// Exhausted is a source that always fails.
type Exhausted struct{}

func (Exhausted) Read([]byte) (int, error) {
	return 0, errors.New("random source exhausted")
}

// Limited fails once N bytes have been served.
type Limited struct {
	R io.Reader
	N int64
}

func (l *Limited) Read(p []byte) (int, error) {
	if l.N <= 0 {
		return 0, errors.New("random source exhausted")
	}
	if int64(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err := l.R.Read(p)
	l.N -= int64(n)
	return n, err
}
