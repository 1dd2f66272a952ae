/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package join_test

import (
	"bytes"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func seeded(b byte) *rng.Seeded {
	return rng.MustNewSeeded(bytes.Repeat([]byte{b}, rng.SeedSize))
}

var _ = Describe("Join Request", func() {
	var (
		e     *emath.Engine
		pub   *keys.GroupPublicKey
		nonce keys.Nonce
		f     *math.Zr
	)

	for _, id := range []math.CurveID{math.FP256BN_AMCL, math.BN254, math.BLS12_381_BBS} {
		id := id
		name, _ := emath.CurveIDToString(id)

		Context("on curve "+name, func() {
			BeforeEach(func() {
				var err error
				e = emath.MustNewEngine(id)
				pub, _, err = issuer.Setup(e, seeded(1))
				Expect(err).NotTo(HaveOccurred())
				nonce, err = issuer.NewNonce(seeded(2))
				Expect(err).NotTo(HaveOccurred())
				f, err = e.RandomZr(seeded(3), 1)
				Expect(err).NotTo(HaveOccurred())
			})

			Describe("Prove", func() {
				It("binds F to f", func() {
					req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					Expect(req.F.Equals(e.ExpG1(pub.H1, f))).To(BeTrue())
					Expect(req.Curve).To(Equal(id))
				})
			})

			Describe("Verify", func() {
				It("Succeeds", func() {
					for _, alg := range []emath.HashAlg{emath.SHA256, emath.SHA384, emath.SHA512} {
						req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), alg)
						Expect(err).NotTo(HaveOccurred())
						Expect(join.Verify(e, pub, nonce, req, alg)).To(Succeed())
					}
				})

				It("survives serialization", func() {
					req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					raw, err := req.Serialize()
					Expect(err).NotTo(HaveOccurred())
					back := &keys.JoinRequest{}
					Expect(back.Deserialize(raw)).To(Succeed())
					Expect(join.Verify(e, pub, nonce, back, emath.SHA512)).To(Succeed())
				})

				Context("when the response does not match F", func() {
					It("fails", func() {
						req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
						Expect(err).NotTo(HaveOccurred())
						other, err := e.RandomZr(seeded(5), 1)
						Expect(err).NotTo(HaveOccurred())
						req.F = e.ExpG1(pub.H1, other)
						Expect(join.Verify(e, pub, nonce, req, emath.SHA512)).To(MatchError(ContainSubstring("challenge mismatch")))
					})
				})

				Context("when the nonce is different", func() {
					It("fails", func() {
						req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
						Expect(err).NotTo(HaveOccurred())
						other := nonce
						other[0] ^= 1
						err = join.Verify(e, pub, other, req, emath.SHA512)
						Expect(err).To(HaveOccurred())
						Expect(err).To(MatchError(emath.ErrInvalidProof))
					})
				})

				Context("when the hash algorithm is different", func() {
					It("fails", func() {
						req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA256)
						Expect(err).NotTo(HaveOccurred())
						Expect(join.Verify(e, pub, nonce, req, emath.SHA384)).To(MatchError(emath.ErrInvalidProof))
					})
				})

				Context("when the request is for another group", func() {
					It("fails", func() {
						req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
						Expect(err).NotTo(HaveOccurred())
						pub2, _, err := issuer.Setup(e, seeded(9))
						Expect(err).NotTo(HaveOccurred())
						Expect(join.Verify(e, pub2, nonce, req, emath.SHA512)).To(MatchError(emath.ErrInvalidProof))
					})
				})
			})

			Describe("Challenge", func() {
				It("is deterministic", func() {
					req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					v, err := join.NewVerifier(e, pub, emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					R := v.RecomputeCommitment(req)

					c1, err := join.Challenge(e, pub, req.F, R, nonce, emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					c2, err := join.Challenge(e, pub, req.F, R, nonce, emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					Expect(c1.Equals(c2)).To(BeTrue())
					Expect(c1.Equals(req.C)).To(BeTrue())
				})
			})
		})
	}

	Describe("Edge cases", func() {
		BeforeEach(func() {
			var err error
			e = emath.MustNewEngine(emath.DefaultCurve)
			pub, _, err = issuer.Setup(e, seeded(1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("maps f = 1 to F = h1", func() {
			req, err := join.CreateJoinRequest(e, pub, keys.Nonce{}, e.Curve.NewZrFromInt(1), seeded(6), emath.SHA256)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.F.Equals(pub.H1)).To(BeTrue())
			Expect(join.Verify(e, pub, keys.Nonce{}, req, emath.SHA256)).To(Succeed())
		})

		It("rejects an unsupported hash algorithm without reading randomness", func() {
			counter := rng.NewCounter(seeded(7))
			req, err := join.CreateJoinRequest(e, pub, keys.Nonce{}, e.Curve.NewZrFromInt(5), counter, emath.HashAlg(99))
			Expect(err).To(MatchError(emath.ErrUnsupportedAlgorithm))
			Expect(req).To(BeNil())
			Expect(counter.Calls()).To(BeZero())
		})

		It("rejects f out of range", func() {
			counter := rng.NewCounter(seeded(7))
			_, err := join.CreateJoinRequest(e, pub, keys.Nonce{}, e.Curve.NewZrFromInt(0), counter, emath.SHA256)
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
			_, err = join.CreateJoinRequest(e, pub, keys.Nonce{}, nil, counter, emath.SHA256)
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
			Expect(counter.Calls()).To(BeZero())
		})

		It("rejects a key from another curve", func() {
			other := emath.MustNewEngine(math.BN254)
			_, err := join.CreateJoinRequest(other, pub, keys.Nonce{}, other.Curve.NewZrFromInt(5), seeded(7), emath.SHA256)
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
		})

		It("propagates random source failures", func() {
			_, err := join.CreateJoinRequest(e, pub, keys.Nonce{}, e.Curve.NewZrFromInt(5), rng.Exhausted{}, emath.SHA256)
			Expect(err).To(MatchError(emath.ErrRandomSource))
			_, err = join.CreateJoinRequest(e, pub, keys.Nonce{}, e.Curve.NewZrFromInt(5), nil, emath.SHA256)
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
		})

		It("rejects incomplete requests", func() {
			Expect(join.Verify(e, pub, keys.Nonce{}, nil, emath.SHA256)).To(MatchError(emath.ErrInvalidArgument))
			Expect(join.Verify(e, pub, keys.Nonce{}, &keys.JoinRequest{Curve: e.CurveID()}, emath.SHA256)).To(MatchError(emath.ErrInvalidArgument))
		})
	})
})
