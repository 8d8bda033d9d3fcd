package frost

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var bindingTag = []byte("frost/binding")

// Commitment is the public half of a participant's Round-1 output: the curve
// images (D, E) of its hiding and binding nonces. The CommitmentID lets a
// coordinator discard replays.
type Commitment struct {
	CommitmentID int64
	SignerID     int
	Hiding       *btcec.JacobianPoint
	Binding      *btcec.JacobianPoint
}

func (c Commitment) validate() error {
	if c.SignerID == 0 {
		return fmt.Errorf("commitment identifier can't be zero")
	}
	if err := validatePoint(c.Hiding); err != nil {
		return fmt.Errorf("invalid hiding nonce commitment for signer %d: %w", c.SignerID, err)
	}
	if err := validatePoint(c.Binding); err != nil {
		return fmt.Errorf("invalid binding nonce commitment for signer %d: %w", c.SignerID, err)
	}
	return nil
}

func validatePoint(pt *btcec.JacobianPoint) error {
	if pt == nil {
		return fmt.Errorf("point can't be nil")
	}
	if pt.X.IsZero() && pt.Y.IsZero() {
		return fmt.Errorf("point can't be the identity")
	}
	return nil
}

func (c Commitment) Encode() []byte {
	out := make([]byte, 8+2+33+33)
	binary.LittleEndian.PutUint64(out[0:8], uint64(c.CommitmentID))
	binary.LittleEndian.PutUint16(out[8:10], uint16(c.SignerID))
	writePointTo(out[10:10+33], c.Hiding)
	writePointTo(out[10+33:10+33+33], c.Binding)
	return out
}

func (c *Commitment) Decode(in []byte) error {
	if len(in) < 8+2+33+33 {
		return fmt.Errorf("too small")
	}

	c.CommitmentID = int64(binary.LittleEndian.Uint64(in[0:8]))
	c.SignerID = int(binary.LittleEndian.Uint16(in[8:10]))

	var err error
	if c.Hiding, err = ParsePoint(in[10 : 10+33]); err != nil {
		return fmt.Errorf("failed to decode hiding nonce commitment: %w", err)
	}
	if c.Binding, err = ParsePoint(in[10+33 : 10+33+33]); err != nil {
		return fmt.Errorf("failed to decode binding nonce commitment: %w", err)
	}

	return nil
}

func (c Commitment) Hex() string { return hex.EncodeToString(c.Encode()) }
func (c *Commitment) DecodeHex(x string) error {
	b, err := hex.DecodeString(x)
	if err != nil {
		return err
	}
	return c.Decode(b)
}

// SigningPackage is the coordinator-assembled input to Round 2: the message
// to be signed plus one commitment per participating signer, sorted by signer
// identifier.
type SigningPackage struct {
	Message     []byte
	Commitments []Commitment
}

// NewSigningPackage validates and sorts the commitment list and binds it to
// the message. Duplicated signer identifiers are rejected.
func NewSigningPackage(message []byte, commitments []Commitment) (SigningPackage, error) {
	if len(commitments) == 0 {
		return SigningPackage{}, fmt.Errorf("empty commitment list")
	}

	sorted := make([]Commitment, len(commitments))
	copy(sorted, commitments)
	slices.SortFunc(sorted, func(a, b Commitment) int { return a.SignerID - b.SignerID })

	for i, com := range sorted {
		if err := com.validate(); err != nil {
			return SigningPackage{}, err
		}
		if i > 0 && sorted[i-1].SignerID == com.SignerID {
			return SigningPackage{}, fmt.Errorf("%w: signer %d", ErrDuplicateParticipant, com.SignerID)
		}
	}

	return SigningPackage{Message: message, Commitments: sorted}, nil
}

// ParticipantIDs returns the session's signer identifiers in ascending order.
func (p SigningPackage) ParticipantIDs() []int {
	ids := make([]int, len(p.Commitments))
	for i, com := range p.Commitments {
		ids[i] = com.SignerID
	}
	return ids
}

func (p SigningPackage) commitmentFor(id int) (Commitment, bool) {
	for _, com := range p.Commitments {
		if com.SignerID == id {
			return com, true
		}
	}
	return Commitment{}, false
}

// bindingCoefficient derives the session's binding scalar by domain-separated
// hashing of the group key, the full sorted commitment set and the message.
func (p SigningPackage) bindingCoefficient(groupKey *btcec.JacobianPoint) *btcec.ModNScalar {
	preimage := make([]byte, 0, 32+4+len(p.Commitments)*(32+33+33)+len(p.Message))

	preimage = append(preimage, groupKey.X.Bytes()[:]...)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(p.Commitments)))
	preimage = append(preimage, count[:]...)

	for _, com := range p.Commitments {
		id := new(btcec.ModNScalar).SetInt(uint32(com.SignerID)).Bytes()
		preimage = append(preimage, id[:]...)
		preimage = appendPoint(preimage, com.Hiding)
		preimage = appendPoint(preimage, com.Binding)
	}

	preimage = append(preimage, p.Message...)

	hash := chainhash.TaggedHash(bindingTag, preimage)
	s := new(btcec.ModNScalar)
	s.SetBytes((*[32]byte)(hash))
	return s
}

// groupCommitment aggregates the session commitments into the final nonce
// R = sum(D) + b*sum(E). Per BIP-340 the returned point always has an even Y
// coordinate; negate reports whether a negation was needed to get there, in
// which case every signer must negate its secret nonces too.
func (p SigningPackage) groupCommitment(groupKey *btcec.JacobianPoint) (
	binding *btcec.ModNScalar,
	finalNonce *btcec.JacobianPoint,
	negate bool,
) {
	binding = p.bindingCoefficient(groupKey)

	hiding := new(btcec.JacobianPoint)
	bindingSum := new(btcec.JacobianPoint)
	for _, com := range p.Commitments {
		btcec.AddNonConst(hiding, com.Hiding, hiding)
		btcec.AddNonConst(bindingSum, com.Binding, bindingSum)
	}

	finalNonce = new(btcec.JacobianPoint)
	btcec.ScalarMultNonConst(binding, bindingSum, finalNonce)
	btcec.AddNonConst(finalNonce, hiding, finalNonce)
	finalNonce.ToAffine()

	if finalNonce.Y.IsOdd() {
		finalNonce.Y.Negate(1)
		finalNonce.Y.Normalize()
		negate = true
	}

	return binding, finalNonce, negate
}
