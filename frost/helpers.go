package frost

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func writePointTo(out []byte, pt *btcec.JacobianPoint) {
	if pt.Y.IsOdd() {
		out[0] = secp256k1.PubKeyFormatCompressedOdd
	} else {
		out[0] = secp256k1.PubKeyFormatCompressedEven
	}
	pt.X.PutBytesUnchecked(out[1:])
}

func appendPoint(out []byte, pt *btcec.JacobianPoint) []byte {
	var buf [33]byte
	writePointTo(buf[:], pt)
	return append(out, buf[:]...)
}

// EncodePoint serializes a point in 33-byte compressed form.
func EncodePoint(pt *btcec.JacobianPoint) []byte {
	var buf [33]byte
	writePointTo(buf[:], pt)
	return buf[:]
}

// ParsePoint decodes a 33-byte compressed point.
func ParsePoint(in []byte) (*btcec.JacobianPoint, error) {
	pk, err := secp256k1.ParsePubKey(in)
	if err != nil {
		return nil, err
	}
	pt := new(btcec.JacobianPoint)
	pk.AsJacobian(pt)
	return pt, nil
}

const maxScalarResamples = 100

// sampleScalar draws a uniformly random non-zero scalar from rng, rejecting
// zero and out-of-range candidates.
func sampleScalar(rng io.Reader) (*btcec.ModNScalar, error) {
	var buf [32]byte
	defer func() {
		for i := range buf {
			buf[i] = 0
		}
	}()

	for attempt := 0; attempt < maxScalarResamples; attempt++ {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRandomnessFailure, err)
		}

		s := new(btcec.ModNScalar)
		overflow := s.SetBytes(&buf)
		if overflow != 0 || s.IsZero() {
			continue
		}

		return s, nil
	}

	return nil, fmt.Errorf("%w: no usable scalar after %d draws", ErrRandomnessFailure, maxScalarResamples)
}

func pointsEqual(a, b *btcec.JacobianPoint) bool {
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}
