package frost

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// SignatureShare is one participant's Round-2 output: its scalar contribution
// to the aggregate signature.
type SignatureShare struct {
	SignerID int
	Value    *btcec.ModNScalar
}

func (s SignatureShare) Encode() []byte {
	out := make([]byte, 2+32)
	binary.LittleEndian.PutUint16(out[0:2], uint16(s.SignerID))
	s.Value.PutBytesUnchecked(out[2 : 2+32])
	return out
}

func (s *SignatureShare) Decode(in []byte) error {
	if len(in) < 2+32 {
		return fmt.Errorf("too small")
	}
	s.SignerID = int(binary.LittleEndian.Uint16(in[0:2]))
	s.Value = new(btcec.ModNScalar)
	s.Value.SetBytes((*[32]byte)(in[2 : 2+32]))
	return nil
}

func (s SignatureShare) Hex() string { return hex.EncodeToString(s.Encode()) }
func (s *SignatureShare) DecodeHex(x string) error {
	b, err := hex.DecodeString(x)
	if err != nil {
		return err
	}
	return s.Decode(b)
}

// VerifySignatureShare checks one participant's signature share against its
// verifying share and the signing package:
//
//	s*G == (D + b*E) + (c*lambda)*X
//
// with the commitment side negated when the session's final nonce needed a
// BIP-340 negation. Failures name the offending signer.
func VerifySignatureShare(share SignatureShare, pkg SigningPackage, pubkeys PublicKeyPackage) error {
	if share.Value == nil || share.Value.IsZero() {
		return InvalidShareError{SignerID: share.SignerID, Reason: "nil or zero scalar"}
	}

	commitment, ok := pkg.commitmentFor(share.SignerID)
	if !ok {
		return InvalidShareError{SignerID: share.SignerID, Reason: "no commitment in the signing package"}
	}

	verifyingShare, ok := pubkeys.VerifyingShares[share.SignerID]
	if !ok {
		return InvalidShareError{SignerID: share.SignerID, Reason: "no registered verifying share"}
	}

	bindingCoefficient, finalNonce, negate := pkg.groupCommitment(pubkeys.GroupPublicKey)
	challenge := challengeScalar(finalNonce, pubkeys.GroupPublicKey, pkg.Message)
	lambda := computeLambda(share.SignerID, pkg.ParticipantIDs())

	// D + b*E
	commitmentSide := new(btcec.JacobianPoint)
	btcec.ScalarMultNonConst(bindingCoefficient, commitment.Binding, commitmentSide)
	btcec.AddNonConst(commitmentSide, commitment.Hiding, commitmentSide)
	commitmentSide.ToAffine()

	// the signer flipped its secret nonces when the final nonce came out
	// odd, so the public side flips too
	if negate {
		commitmentSide.Y.Negate(1)
		commitmentSide.Y.Normalize()
	}

	// (c*lambda)*X
	keySide := new(btcec.JacobianPoint)
	btcec.ScalarMultNonConst(new(btcec.ModNScalar).Mul2(challenge, lambda), verifyingShare, keySide)

	expected := new(btcec.JacobianPoint)
	btcec.AddNonConst(commitmentSide, keySide, expected)
	expected.ToAffine()

	actual := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(share.Value, actual)
	actual.ToAffine()

	if !pointsEqual(actual, expected) {
		return InvalidShareError{SignerID: share.SignerID, Reason: "share does not verify against its commitment"}
	}

	return nil
}

// Aggregate collects the session's signature shares into a single BIP-340
// Schnorr signature. Every share is verified first; one bad share fails the
// whole session and identifies the culprit.
func Aggregate(pkg SigningPackage, shares []SignatureShare, pubkeys PublicKeyPackage) (*schnorr.Signature, error) {
	if len(shares) != len(pkg.Commitments) {
		return nil, fmt.Errorf("got %d signature shares for %d commitments", len(shares), len(pkg.Commitments))
	}

	_, finalNonce, _ := pkg.groupCommitment(pubkeys.GroupPublicKey)

	// each share must map to its own commitment: a repeated signer would
	// slip past per-share verification and only surface as an aggregate
	// that fails the final check
	seen := make(map[int]bool, len(shares))
	z := new(btcec.ModNScalar)
	for _, share := range shares {
		if seen[share.SignerID] {
			return nil, fmt.Errorf("%w: signer %d submitted more than one share", ErrDuplicateParticipant, share.SignerID)
		}
		seen[share.SignerID] = true
		if err := VerifySignatureShare(share, pkg, pubkeys); err != nil {
			return nil, err
		}
		z.Add(share.Value)
	}

	return schnorr.NewSignature(&finalNonce.X, z), nil
}

// VerifySignature checks a 64-byte aggregate signature as plain BIP-340
// Schnorr against the group verifying key: z*G == R + c*P. Unlike the
// btcec verifier it accepts messages of any length, which BIP-340 allows.
func VerifySignature(sig *schnorr.Signature, message []byte, groupKey *btcec.JacobianPoint) error {
	raw := sig.Serialize()

	noncePub, err := schnorr.ParsePubKey(raw[0:32])
	if err != nil {
		return fmt.Errorf("signature R is not a valid x coordinate: %w", err)
	}
	nonce := new(btcec.JacobianPoint)
	noncePub.AsJacobian(nonce)

	var z btcec.ModNScalar
	if overflow := z.SetByteSlice(raw[32:64]); overflow {
		return fmt.Errorf("signature scalar out of range")
	}

	groupPub, err := schnorr.ParsePubKey(groupKey.X.Bytes()[:])
	if err != nil {
		return fmt.Errorf("group key is not a valid x coordinate: %w", err)
	}
	pk := new(btcec.JacobianPoint)
	groupPub.AsJacobian(pk)

	challenge := challengeScalar(nonce, pk, message)

	// R + c*P
	expected := new(btcec.JacobianPoint)
	btcec.ScalarMultNonConst(challenge, pk, expected)
	btcec.AddNonConst(expected, nonce, expected)
	expected.ToAffine()

	// z*G
	actual := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(&z, actual)
	actual.ToAffine()

	if !pointsEqual(actual, expected) {
		return fmt.Errorf("signature does not verify against the group key")
	}

	return nil
}
