package frost

import (
	"fmt"
	"io"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
)

// SecretShare is one participant's raw evaluation of the dealer's polynomial,
// together with the commitment vector it can be verified against. It is
// consumed once to produce a KeyPackage.
type SecretShare struct {
	ID         int
	Value      *btcec.ModNScalar
	Commitment VssCommitment
}

// Verify checks the share value against the dealer's polynomial commitment:
// Value*G must equal the commitment polynomial evaluated at ID.
func (s SecretShare) Verify() error {
	if s.ID == 0 {
		return InvalidShareError{SignerID: s.ID, Reason: "identifier is zero"}
	}
	if s.Value == nil || s.Value.IsZero() {
		return InvalidShareError{SignerID: s.ID, Reason: "share value is nil or zero"}
	}
	if len(s.Commitment) == 0 {
		return InvalidShareError{SignerID: s.ID, Reason: "missing commitment vector"}
	}

	expected := s.Commitment.Evaluate(s.ID)

	actual := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(s.Value, actual)
	actual.ToAffine()

	if !pointsEqual(actual, expected) {
		return InvalidShareError{SignerID: s.ID, Reason: "share does not match polynomial commitment"}
	}

	return nil
}

func (s *SecretShare) zeroize() {
	if s.Value != nil {
		s.Value.Zero()
	}
}

// String redacts the share value.
func (s SecretShare) String() string {
	return fmt.Sprintf("SecretShare{id: %d, value: <redacted>}", s.ID)
}

// KeyPackage is the long-lived bundle a participant holds between signing
// sessions: its verified signing share and the group material needed to take
// part in a session.
type KeyPackage struct {
	ID             int
	SigningShare   *btcec.ModNScalar
	VerifyingShare *btcec.JacobianPoint
	GroupPublicKey *btcec.JacobianPoint
	Threshold      int
}

// String redacts the signing share.
func (kp KeyPackage) String() string {
	return fmt.Sprintf("KeyPackage{id: %d, threshold: %d, signing share: <redacted>}", kp.ID, kp.Threshold)
}

// KeyPackageFromSecretShare verifies a dealt share against its commitment
// vector and promotes it into a long-lived KeyPackage.
func KeyPackageFromSecretShare(share SecretShare, threshold int) (KeyPackage, error) {
	if err := share.Verify(); err != nil {
		return KeyPackage{}, err
	}

	verifying := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(share.Value, verifying)
	verifying.ToAffine()

	group := new(btcec.JacobianPoint)
	group.Set(share.Commitment[0])

	return KeyPackage{
		ID:             share.ID,
		SigningShare:   new(btcec.ModNScalar).Set(share.Value),
		VerifyingShare: verifying,
		GroupPublicKey: group,
		Threshold:      threshold,
	}, nil
}

// PublicKeyPackage is the group-wide record: the group verifying key plus the
// verifying share of every participant.
type PublicKeyPackage struct {
	GroupPublicKey  *btcec.JacobianPoint
	VerifyingShares map[int]*btcec.JacobianPoint
	Threshold       int
}

// IDs returns every participant identifier in ascending order.
func (pkp PublicKeyPackage) IDs() []int {
	ids := make([]int, 0, len(pkp.VerifyingShares))
	for id := range pkp.VerifyingShares {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Generate runs the trusted dealer over a freshly drawn random secret and
// produces one verified KeyPackage per participant, identifiers 1..maxSigners.
func Generate(threshold, maxSigners int, rng io.Reader) ([]KeyPackage, PublicKeyPackage, error) {
	secret, err := sampleScalar(rng)
	if err != nil {
		return nil, PublicKeyPackage{}, err
	}
	defer secret.Zero()

	return Split(secret, threshold, maxSigners, rng)
}

// Split shards the supplied secret into maxSigners verified KeyPackages with
// the given threshold. The resulting group verifying key is the x-only image
// of secret*G.
//
// The secret is negated before sharding when its public point has an odd Y
// coordinate, so the shares interpolate to the BIP-340 even-Y secret.
func Split(secret *btcec.ModNScalar, threshold, maxSigners int, rng io.Reader) ([]KeyPackage, PublicKeyPackage, error) {
	if secret == nil || secret.IsZero() {
		return nil, PublicKeyPackage{}, ErrInvalidSecret
	}
	if threshold < 1 || maxSigners < threshold {
		return nil, PublicKeyPackage{}, fmt.Errorf("invalid parameters: threshold %d, max signers %d", threshold, maxSigners)
	}

	normalized := new(btcec.ModNScalar).Set(secret)
	defer normalized.Zero()

	pubkey := new(btcec.JacobianPoint)
	btcec.ScalarBaseMultNonConst(normalized, pubkey)
	pubkey.ToAffine()
	if pubkey.Y.IsOdd() {
		normalized.Negate()
	}

	shares, commits, err := shardSecret(normalized, threshold, maxSigners, rng)
	if err != nil {
		return nil, PublicKeyPackage{}, err
	}
	defer func() {
		for i := range shares {
			shares[i].zeroize()
		}
	}()

	packages := make([]KeyPackage, len(shares))
	verifyingShares := make(map[int]*btcec.JacobianPoint, len(shares))
	for i, share := range shares {
		kp, err := KeyPackageFromSecretShare(share, threshold)
		if err != nil {
			return nil, PublicKeyPackage{}, err
		}
		packages[i] = kp
		verifyingShares[kp.ID] = kp.VerifyingShare
	}

	group := new(btcec.JacobianPoint)
	group.Set(commits[0])

	return packages, PublicKeyPackage{
		GroupPublicKey:  group,
		VerifyingShares: verifyingShares,
		Threshold:       threshold,
	}, nil
}
