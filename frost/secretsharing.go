package frost

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Polynomial over scalars, represented as a list of t coefficients, where t is
// the threshold. The constant term is in the first position and the highest
// degree coefficient is in the last position. All operations on the
// coefficients are done modulo the group order.
type Polynomial []*btcec.ModNScalar

func makePolynomial(secret *btcec.ModNScalar, threshold int, rng io.Reader) (Polynomial, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("threshold must be at least 1, got %d", threshold)
	}
	if secret == nil || secret.IsZero() {
		return nil, ErrInvalidSecret
	}

	p := make(Polynomial, threshold)
	p[0] = new(btcec.ModNScalar).Set(secret)

	for i := 1; i < threshold; i++ {
		coeff, err := sampleScalar(rng)
		if err != nil {
			return nil, err
		}
		p[i] = coeff
	}

	return p, nil
}

// Evaluate evaluates the polynomial p at point x using Horner's method.
func (p Polynomial) Evaluate(x *btcec.ModNScalar) *btcec.ModNScalar {
	value := new(btcec.ModNScalar).Set(p[len(p)-1])
	for i := len(p) - 2; i >= 0; i-- {
		value = value.Mul(x).Add(p[i])
	}
	return value
}

func (p Polynomial) zeroize() {
	for _, coeff := range p {
		coeff.Zero()
	}
}

// VssCommitment is the vector of curve-point images of a secret polynomial's
// coefficients, committing the dealer to the polynomial without revealing it.
type VssCommitment []*btcec.JacobianPoint

// VSSCommit builds the Verifiable Secret Sharing commitment to each of the
// polynomial's coefficients.
func VSSCommit(polynomial Polynomial) VssCommitment {
	commits := make(VssCommitment, len(polynomial))
	for i, coeff := range polynomial {
		pt := new(btcec.JacobianPoint)
		btcec.ScalarBaseMultNonConst(coeff, pt)
		pt.ToAffine()
		commits[i] = pt
	}
	return commits
}

// Evaluate computes the public image of the underlying polynomial at point id,
// i.e. sum(id^k * C_k), with Horner's method over points.
func (vss VssCommitment) Evaluate(id int) *btcec.JacobianPoint {
	x := new(btcec.ModNScalar).SetInt(uint32(id))

	acc := new(btcec.JacobianPoint)
	acc.Set(vss[len(vss)-1])
	for i := len(vss) - 2; i >= 0; i-- {
		scaled := new(btcec.JacobianPoint)
		btcec.ScalarMultNonConst(x, acc, scaled)
		btcec.AddNonConst(scaled, vss[i], acc)
	}
	acc.ToAffine()

	return acc
}

func shardSecret(
	secret *btcec.ModNScalar,
	threshold, maxSigners int,
	rng io.Reader,
) ([]SecretShare, VssCommitment, error) {
	if maxSigners < threshold {
		return nil, nil, fmt.Errorf("can't deal %d shares with threshold %d", maxSigners, threshold)
	}

	p, err := makePolynomial(secret, threshold, rng)
	if err != nil {
		return nil, nil, err
	}
	defer p.zeroize()

	commits := VSSCommit(p)

	shares := make([]SecretShare, maxSigners)
	for i := 0; i < maxSigners; i++ {
		id := i + 1
		shares[i] = SecretShare{
			ID:         id,
			Value:      p.Evaluate(new(btcec.ModNScalar).SetInt(uint32(id))),
			Commitment: commits,
		}
	}

	return shares, commits, nil
}
