package frost

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Nonces is a participant's secret Round-1 pair (hiding, binding). Single
// use: consumed by exactly one Sign call and zeroized right after.
type Nonces [2]*btcec.ModNScalar

// String redacts the nonce values.
func (n Nonces) String() string { return "Nonces{<redacted>}" }

func (n *Nonces) zeroize() {
	for i, s := range n {
		if s != nil {
			s.Zero()
		}
		n[i] = nil
	}
}

// Signer is one participant in a signing session.
type Signer struct {
	// KeyPackage holds the signer's long-lived secret and public material.
	KeyPackage KeyPackage

	// lambdas caches Lagrange values across sessions with the same group.
	lambdas LambdaRegistry

	// nonces are this session's secret nonces, set by Commit and destroyed
	// by Sign.
	nonces Nonces
}

// NewSigner instantiates a session participant from its key package.
func NewSigner(kp KeyPackage) (*Signer, error) {
	if kp.ID == 0 {
		return nil, fmt.Errorf("key package identifier can't be zero")
	}
	if kp.SigningShare == nil || kp.SigningShare.IsZero() {
		return nil, fmt.Errorf("key package signing share is nil or zero")
	}
	if err := validatePoint(kp.GroupPublicKey); err != nil {
		return nil, fmt.Errorf("key package group key is invalid: %w", err)
	}

	derived := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(kp.SigningShare, derived)
	derived.ToAffine()
	if !pointsEqual(derived, kp.VerifyingShare) {
		return nil, InvalidShareError{SignerID: kp.ID, Reason: "verifying share does not match signing share"}
	}

	return &Signer{
		KeyPackage: kp,
		lambdas:    make(LambdaRegistry),
	}, nil
}

// generateNonce derives a fresh secret scalar by hedging the rng output with
// the signer's secret share, so a weak randomness source alone can't leak the
// share through nonce reuse.
func (s *Signer) generateNonce(rng io.Reader, domain string) (*btcec.ModNScalar, *btcec.JacobianPoint, error) {
	for attempt := 0; attempt < maxScalarResamples; attempt++ {
		var random [32]byte
		if _, err := io.ReadFull(rng, random[:]); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrRandomnessFailure, err)
		}

		secBytes := s.KeyPackage.SigningShare.Bytes()
		hedged := sha256.Sum256(random[:])
		for i, b := range secBytes {
			hedged[i] ^= b
		}

		preimage := make([]byte, 0, 32+33+len(domain))
		preimage = append(preimage, hedged[:]...)
		preimage = appendPoint(preimage, s.KeyPackage.GroupPublicKey)
		preimage = append(preimage, domain...)
		kH := sha256.Sum256(preimage)

		k := new(btcec.ModNScalar)
		overflow := k.SetBytes(&kH)

		for i := range secBytes {
			secBytes[i] = 0
		}
		for i := range hedged {
			hedged[i] = 0
		}
		for i := range preimage {
			preimage[i] = 0
		}
		for i := range kH {
			kH[i] = 0
		}

		if overflow != 0 || k.IsZero() {
			continue
		}

		pt := new(btcec.JacobianPoint)
		btcec.ScalarBaseMultNonConst(k, pt)
		pt.ToAffine()

		return k, pt, nil
	}

	return nil, nil, fmt.Errorf("%w: no usable nonce after %d draws", ErrRandomnessFailure, maxScalarResamples)
}

// Commit runs Round 1: it draws the signer's secret nonce pair and returns
// the public commitment to be sent to the coordinator. The secret half stays
// with the signer until Sign consumes it.
func (s *Signer) Commit(rng io.Reader) (Commitment, error) {
	secHiding, pubHiding, err := s.generateNonce(rng, "hiding")
	if err != nil {
		return Commitment{}, err
	}
	secBinding, pubBinding, err := s.generateNonce(rng, "binding")
	if err != nil {
		return Commitment{}, err
	}

	var cid [8]byte
	if _, err := io.ReadFull(rng, cid[:]); err != nil {
		return Commitment{}, fmt.Errorf("%w: %w", ErrRandomnessFailure, err)
	}

	s.nonces = Nonces{secHiding, secBinding}

	return Commitment{
		CommitmentID: int64(binary.LittleEndian.Uint64(cid[:])),
		SignerID:     s.KeyPackage.ID,
		Hiding:       pubHiding,
		Binding:      pubBinding,
	}, nil
}

// Sign runs Round 2: it computes the signer's share of the aggregate
// signature, z = d + b*e + c*lambda*x, and destroys the session nonces.
func (s *Signer) Sign(pkg SigningPackage) (SignatureShare, error) {
	if s.nonces[0] == nil || s.nonces[1] == nil {
		return SignatureShare{}, fmt.Errorf("signer %d has no unused nonces, Commit must run first", s.KeyPackage.ID)
	}
	defer s.nonces.zeroize()

	if _, ok := pkg.commitmentFor(s.KeyPackage.ID); !ok {
		return SignatureShare{}, fmt.Errorf("signer %d is not part of this signing session", s.KeyPackage.ID)
	}

	bindingCoefficient, finalNonce, negate := pkg.groupCommitment(s.KeyPackage.GroupPublicKey)

	// BIP-340: the aggregate nonce must have an even Y, so when the group
	// sum came out odd every signer flips its secret nonces.
	if negate {
		s.nonces[0].Negate()
		s.nonces[1].Negate()
	}

	challenge := challengeScalar(finalNonce, s.KeyPackage.GroupPublicKey, pkg.Message)

	lambda := s.lambdas.getOrNew(pkg.ParticipantIDs(), s.KeyPackage.ID)

	z := new(btcec.ModNScalar).
		Mul2(s.nonces[1], bindingCoefficient).
		Add(s.nonces[0]).
		Add(
			new(btcec.ModNScalar).
				Mul2(lambda, challenge).
				Mul(s.KeyPackage.SigningShare),
		)

	return SignatureShare{
		SignerID: s.KeyPackage.ID,
		Value:    z,
	}, nil
}

func challengeScalar(finalNonce, groupKey *btcec.JacobianPoint, message []byte) *btcec.ModNScalar {
	hash := chainhash.TaggedHash(chainhash.TagBIP0340Challenge,
		finalNonce.X.Bytes()[:],
		groupKey.X.Bytes()[:],
		message,
	)
	s := new(btcec.ModNScalar)
	s.SetBytes((*[32]byte)(hash))
	return s
}
