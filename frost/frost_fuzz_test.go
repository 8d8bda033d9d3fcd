package frost

import (
	"crypto/rand"
	mrand "math/rand"
	"slices"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

func FuzzSplitAndSign(f *testing.F) {
	f.Add(
		[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20},
		3, 5,
		[]byte{0xa1, 0xa2, 0xa3},
		0,
	)

	f.Fuzz(func(t *testing.T,
		secretKeyBytes []byte,
		threshold,
		maxSigners int,
		messageBytes []byte,
		seed int,
	) {
		if len(secretKeyBytes) != 32 {
			t.Skip("secret key must be 32 bytes")
		}
		if threshold < 2 || threshold > 6 {
			t.Skip("threshold must be between 2 and 6")
		}
		if maxSigners < threshold || maxSigners > 8 {
			t.Skip("maxSigners must be >= threshold and <= 8")
		}

		secret := new(btcec.ModNScalar)
		if overflow := secret.SetByteSlice(secretKeyBytes); overflow {
			t.Skip("secret key overflow")
		}
		if secret.IsZero() {
			t.Skip("secret key is zero")
		}

		rnd := mrand.New(mrand.NewSource(int64(seed)))

		packages, pubkeys, err := Split(secret, threshold, maxSigners, rand.Reader)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}
		if len(packages) != maxSigners {
			t.Fatalf("expected %d key packages, got %d", maxSigners, len(packages))
		}

		// any threshold-sized subset must be able to sign
		rnd.Shuffle(len(packages), func(i, j int) {
			packages[i], packages[j] = packages[j], packages[i]
		})
		chosen := packages[:threshold]

		signers := make([]*Signer, threshold)
		commitments := make([]Commitment, threshold)
		for i, kp := range chosen {
			signer, err := NewSigner(kp)
			if err != nil {
				t.Fatalf("failed to create signer %d: %v", kp.ID, err)
			}
			signers[i] = signer

			commitments[i], err = signer.Commit(rand.Reader)
			if err != nil {
				t.Fatalf("failed to commit for signer %d: %v", kp.ID, err)
			}
		}

		pkg, err := NewSigningPackage(messageBytes, commitments)
		if err != nil {
			t.Fatalf("failed to build signing package: %v", err)
		}
		if !slices.IsSorted(pkg.ParticipantIDs()) {
			t.Fatal("participant ids are not sorted")
		}

		shares := make([]SignatureShare, threshold)
		for i, signer := range signers {
			shares[i], err = signer.Sign(pkg)
			if err != nil {
				t.Fatalf("failed to sign with signer %d: %v", signer.KeyPackage.ID, err)
			}
		}

		for i, share := range shares {
			if err := VerifySignatureShare(share, pkg, pubkeys); err != nil {
				t.Fatalf("signature share %d verification failed: %v", i, err)
			}
		}

		sig, err := Aggregate(pkg, shares, pubkeys)
		if err != nil {
			t.Fatalf("failed to aggregate shares: %v", err)
		}

		if err := VerifySignature(sig, messageBytes, pubkeys.GroupPublicKey); err != nil {
			t.Fatalf("final signature verification failed: %v", err)
		}
	})
}
