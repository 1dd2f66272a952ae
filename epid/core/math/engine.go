/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package math

import (
	"bytes"
	"crypto/rand"
	"io"
	"math/big"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("core", "math")

// Engine performs the field and group operations of the protocol on one curve.
// Field elements live in Z_p where p is the prime order of G1 and G2.
// Every element encodes to a fixed width: ScalarSize for Z_p, G1Size for G1
// and G2Size for G2.
type Engine struct {
	Curve *math.Curve

	id         math.CurveID
	order      *big.Int
	ScalarSize int
	G1Size     int
	G2Size     int
}

// NewEngine returns an engine for the given registered curve.
func NewEngine(id math.CurveID) (*Engine, error) {
	if int(id) < 0 || int(id) >= len(math.Curves) {
		return nil, errors.Wrapf(ErrInvalidArgument, "curve [%d] is not registered", id)
	}
	c := math.Curves[id]

	one := c.NewZrFromInt(1)
	// p-1 is a reduced element, its encoding is canonical on every driver
	pMinusOne := c.ModSub(c.NewZrFromInt(0), one, c.GroupOrder)
	order := new(big.Int).SetBytes(pMinusOne.Bytes())
	order.Add(order, big.NewInt(1))

	e := &Engine{
		Curve:      c,
		id:         id,
		order:      order,
		ScalarSize: len(one.Bytes()),
		G1Size:     len(c.GenG1.Bytes()),
		G2Size:     len(c.GenG2.Bytes()),
	}
	logger.Debugf("engine for curve [%d]: scalar [%d], g1 [%d], g2 [%d] bytes", id, e.ScalarSize, e.G1Size, e.G2Size)
	return e, nil
}

// MustNewEngine is like NewEngine but panics on error.
func MustNewEngine(id math.CurveID) *Engine {
	e, err := NewEngine(id)
	if err != nil {
		panic(err)
	}
	return e
}

// CurveID returns the identifier of the engine curve.
func (e *Engine) CurveID() math.CurveID {
	return e.id
}

// Order returns a copy of p.
func (e *Engine) Order() *big.Int {
	return new(big.Int).Set(e.order)
}

// G1Generator returns a copy of g1.
func (e *Engine) G1Generator() *math.G1 {
	return e.Curve.GenG1.Copy()
}

// G2Generator returns a copy of g2.
func (e *Engine) G2Generator() *math.G2 {
	return e.Curve.GenG2.Copy()
}

// RandomZr samples a scalar uniformly from [lower, p-1].
func (e *Engine) RandomZr(rng io.Reader, lower int64) (*math.Zr, error) {
	if rng == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil random source")
	}
	lb := big.NewInt(lower)
	if lower < 0 || lb.Cmp(e.order) >= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "lower bound [%d] out of range", lower)
	}
	k, err := rand.Int(rng, new(big.Int).Sub(e.order, lb))
	if err != nil {
		return nil, errors.Wrapf(ErrRandomSource, "failed sampling scalar: %s", err)
	}
	k.Add(k, lb)
	z := e.zrFromBig(k)
	k.SetInt64(0)
	return z, nil
}

// RandomG1 samples a uniformly random element of G1 other than the identity.
func (e *Engine) RandomG1(rng io.Reader) (*math.G1, error) {
	k, err := e.RandomZr(rng, 1)
	if err != nil {
		return nil, err
	}
	defer e.Zeroize(k)
	return e.Curve.GenG1.Mul(k), nil
}

// RandomG2 samples a uniformly random element of G2 other than the identity.
func (e *Engine) RandomG2(rng io.Reader) (*math.G2, error) {
	k, err := e.RandomZr(rng, 1)
	if err != nil {
		return nil, err
	}
	defer e.Zeroize(k)
	return e.Curve.GenG2.Mul(k), nil
}

// Add returns a + b mod p.
func (e *Engine) Add(a, b *math.Zr) *math.Zr {
	return e.Curve.ModAdd(a, b, e.Curve.GroupOrder)
}

// Sub returns a - b mod p.
func (e *Engine) Sub(a, b *math.Zr) *math.Zr {
	return e.Curve.ModSub(a, b, e.Curve.GroupOrder)
}

// Mul returns a * b mod p.
func (e *Engine) Mul(a, b *math.Zr) *math.Zr {
	return e.Curve.ModMul(a, b, e.Curve.GroupOrder)
}

// Neg returns -a mod p.
func (e *Engine) Neg(a *math.Zr) *math.Zr {
	return e.Curve.ModSub(e.Curve.NewZrFromInt(0), a, e.Curve.GroupOrder)
}

// Inverse returns a^-1 mod p.
func (e *Engine) Inverse(a *math.Zr) (*math.Zr, error) {
	if e.IsZero(a) {
		return nil, ErrNotInvertible
	}
	inv := a.Copy()
	inv.InvModP(e.Curve.GroupOrder)
	return inv, nil
}

// IsZero returns true if a is the zero scalar.
func (e *Engine) IsZero(a *math.Zr) bool {
	return a.Equals(e.Curve.NewZrFromInt(0))
}

// InRange returns true if 1 <= a <= p-1.
func (e *Engine) InRange(a *math.Zr) bool {
	if a == nil {
		return false
	}
	v := new(big.Int).SetBytes(a.Bytes())
	return v.Sign() > 0 && v.Cmp(e.order) < 0
}

// ExpG1 returns base^s, written multiplicatively as in the protocol description.
func (e *Engine) ExpG1(base *math.G1, s *math.Zr) *math.G1 {
	return base.Mul(s)
}

// ExpG2 returns base^s.
func (e *Engine) ExpG2(base *math.G2, s *math.Zr) *math.G2 {
	return base.Mul(s)
}

// MulG1 returns a · b (point addition). Inputs are left untouched.
func (e *Engine) MulG1(a, b *math.G1) *math.G1 {
	r := a.Copy()
	r.Add(b)
	return r
}

// MulG2 returns a · b (point addition). Inputs are left untouched.
func (e *Engine) MulG2(a, b *math.G2) *math.G2 {
	r := a.Copy()
	r.Add(b)
	return r
}

// HashToZr hashes data with the selected algorithm and reduces the big-endian
// digest modulo p.
func (e *Engine) HashToZr(data []byte, alg HashAlg) (*math.Zr, error) {
	d, err := digest(data, alg)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(d)
	v.Mod(v, e.order)
	return e.zrFromBig(v), nil
}

// EncodeOrder returns p as a fixed-width big-endian string.
func (e *Engine) EncodeOrder() []byte {
	return e.order.FillBytes(make([]byte, e.ScalarSize))
}

// EncodeZr returns the fixed-width big-endian encoding of a.
func (e *Engine) EncodeZr(a *math.Zr) []byte {
	v := new(big.Int).SetBytes(a.Bytes())
	v.Mod(v, e.order)
	return v.FillBytes(make([]byte, e.ScalarSize))
}

// DecodeZr parses a fixed-width big-endian scalar smaller than p.
func (e *Engine) DecodeZr(raw []byte) (*math.Zr, error) {
	if len(raw) != e.ScalarSize {
		return nil, errors.Wrapf(ErrMalformedEncoding, "scalar must be %d bytes, got %d", e.ScalarSize, len(raw))
	}
	if new(big.Int).SetBytes(raw).Cmp(e.order) >= 0 {
		return nil, errors.Wrap(ErrMalformedEncoding, "scalar is not reduced modulo p")
	}
	return e.Curve.NewZrFromBytes(raw), nil
}

// EncodeG1 returns the fixed-width encoding of a G1 element.
func (e *Engine) EncodeG1(g *math.G1) []byte {
	return g.Bytes()
}

// DecodeG1 parses and checks the canonical encoding of a G1 element.
func (e *Engine) DecodeG1(raw []byte) (g *math.G1, err error) {
	if len(raw) != e.G1Size {
		return nil, errors.Wrapf(ErrMalformedEncoding, "g1 element must be %d bytes, got %d", e.G1Size, len(raw))
	}
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = errors.Wrapf(ErrMalformedEncoding, "failure [%s]", r)
		}
	}()
	g, err = e.Curve.NewG1FromBytes(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEncoding, "invalid g1 element: %s", err)
	}
	if !bytes.Equal(g.Bytes(), raw) {
		return nil, errors.Wrap(ErrMalformedEncoding, "non-canonical g1 element")
	}
	return g, nil
}

// EncodeG2 returns the fixed-width encoding of a G2 element.
func (e *Engine) EncodeG2(g *math.G2) []byte {
	return g.Bytes()
}

// DecodeG2 parses and checks the canonical encoding of a G2 element.
func (e *Engine) DecodeG2(raw []byte) (g *math.G2, err error) {
	if len(raw) != e.G2Size {
		return nil, errors.Wrapf(ErrMalformedEncoding, "g2 element must be %d bytes, got %d", e.G2Size, len(raw))
	}
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = errors.Wrapf(ErrMalformedEncoding, "failure [%s]", r)
		}
	}()
	g, err = e.Curve.NewG2FromBytes(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEncoding, "invalid g2 element: %s", err)
	}
	if !bytes.Equal(g.Bytes(), raw) {
		return nil, errors.Wrap(ErrMalformedEncoding, "non-canonical g2 element")
	}
	return g, nil
}

// IsIdentityG1 returns true for the neutral element of G1.
func (e *Engine) IsIdentityG1(g *math.G1) bool {
	return g.IsInfinity()
}

// IsIdentityG2 returns true for the neutral element of G2.
func (e *Engine) IsIdentityG2(g *math.G2) bool {
	return g.Equals(e.Curve.NewG2())
}

// PairingCheck returns true if e(p, q) == e(r, s).
func (e *Engine) PairingCheck(p *math.G2, q *math.G1, r *math.G2, s *math.G1) bool {
	p, r = p.Copy(), r.Copy()
	p.Affine()
	r.Affine()
	negS := e.Curve.NewG1()
	negS.Sub(s)
	return e.Curve.FExp(e.Curve.Pairing2(p, q, r, negS)).IsUnity()
}

// Zeroize overwrites the given scalars with zero. Nil entries are skipped.
func (e *Engine) Zeroize(zs ...*math.Zr) {
	zero := e.Curve.NewZrFromInt(0)
	for _, z := range zs {
		if z != nil {
			z.Clone(zero)
		}
	}
}

func (e *Engine) zrFromBig(v *big.Int) *math.Zr {
	buf := v.FillBytes(make([]byte, e.ScalarSize))
	z := e.Curve.NewZrFromBytes(buf)
	for i := range buf {
		buf[i] = 0
	}
	return z
}
