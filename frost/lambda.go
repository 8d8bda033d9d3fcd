package frost

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
)

// computeLambda derives the Lagrange interpolating value for id in the
// polynomial made by the participant identifiers. Callers must guarantee:
// - id != 0 and present in participants;
// - every participant id != 0;
// - there are no duplicates in participants.
func computeLambda(id int, participants []int) *btcec.ModNScalar {
	sid := new(btcec.ModNScalar).SetInt(uint32(id))
	numerator := new(btcec.ModNScalar).SetInt(1)
	denominator := new(btcec.ModNScalar).SetInt(1)

	for _, part := range participants {
		if part == id {
			continue
		}

		spart := new(btcec.ModNScalar).SetInt(uint32(part))
		numerator.Mul(spart)
		denominator.Mul(new(btcec.ModNScalar).Set(spart).Add(new(btcec.ModNScalar).NegateVal(sid)))
	}

	return numerator.Mul(denominator.InverseNonConst())
}

// LambdaRegistry holds a signer's pre-computed Lagrange values, indexed by the
// participant group they belong to. Each sorted group of participants yields
// the same value, so it is computed once the first time the group is seen and
// reused in subsequent sessions with the same group.
type LambdaRegistry map[string]*btcec.ModNScalar

func lambdaRegistryKey(id int, participants []int) string {
	key := make([]byte, 2+2*len(participants))
	binary.BigEndian.PutUint16(key[0:2], uint16(id))
	for i, part := range participants {
		binary.BigEndian.PutUint16(key[2+i*2:2+(i+1)*2], uint16(part))
	}
	return hex.EncodeToString(key)
}

func (l LambdaRegistry) getOrNew(participants []int, id int) *btcec.ModNScalar {
	key := lambdaRegistryKey(id, participants)
	if lambda, ok := l[key]; ok {
		return lambda
	}

	lambda := computeLambda(id, participants)
	l[key] = lambda
	return lambda
}
