// Package session orchestrates one two-round threshold signing session. All
// participants live in this process: each runs as its own goroutine holding
// its secret nonces, while the coordinator assembles the signing package,
// collects the signature shares and aggregates them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/frostbit/frostbit/frost"
	"github.com/frostbit/frostbit/keystore"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrInsufficientSigners is returned when fewer key packages are available
// than the threshold requires.
var ErrInsufficientSigners = errors.New("not enough key packages to reach the threshold")

// Result is the outcome of a signing session: the 64-byte BIP-340 aggregate
// signature and its verification verdict against the group verifying key.
type Result struct {
	Signature []byte
	Valid     bool
}

type shareResult struct {
	id    int
	share frost.SignatureShare
	err   error
}

// Sign runs a full signing session over message using the t smallest
// identifiers in the store, where t is the store's threshold. The rng feeds
// every participant's nonce generation and must be safe for concurrent use.
func Sign(ctx context.Context, store *keystore.Store, message []byte, rng io.Reader) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session not started: %w", err)
	}

	threshold := store.PublicKeys.Threshold
	if len(store.KeyPackages) < threshold {
		return nil, fmt.Errorf("%w: have %d key packages, need %d",
			ErrInsufficientSigners, len(store.KeyPackages), threshold)
	}

	// the store is sorted by identifier, so this deterministically picks
	// the t smallest
	chosen := store.KeyPackages[:threshold]

	commitments := xsync.NewMapOf[int, frost.Commitment]()
	commitDone := make(chan error, threshold)
	shareCh := make(chan shareResult, threshold)
	inboxes := make([]chan frost.SigningPackage, threshold)

	defer func() {
		for _, inbox := range inboxes {
			if inbox != nil {
				close(inbox)
			}
		}
	}()

	for i, kp := range chosen {
		signer, err := frost.NewSigner(kp)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate signer %d: %w", kp.ID, err)
		}

		inbox := make(chan frost.SigningPackage, 1)
		inboxes[i] = inbox

		go func(s *frost.Signer, inbox chan frost.SigningPackage) {
			// round 1: commit to fresh nonces
			com, err := s.Commit(rng)
			if err != nil {
				commitDone <- fmt.Errorf("signer %d failed to commit: %w", s.KeyPackage.ID, err)
				return
			}
			commitments.Store(com.SignerID, com)
			commitDone <- nil

			// round 2: wait for the signing package, produce our share
			pkg, ok := <-inbox
			if !ok {
				return
			}
			share, err := s.Sign(pkg)
			shareCh <- shareResult{id: s.KeyPackage.ID, share: share, err: err}
		}(signer, inbox)
	}

	for range chosen {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("session interrupted during round 1: %w", ctx.Err())
		case err := <-commitDone:
			if err != nil {
				return nil, err
			}
		}
	}

	collected := make([]frost.Commitment, 0, threshold)
	commitments.Range(func(_ int, com frost.Commitment) bool {
		collected = append(collected, com)
		return true
	})

	pkg, err := frost.NewSigningPackage(message, collected)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble signing package: %w", err)
	}

	for _, inbox := range inboxes {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("session interrupted during round 2: %w", ctx.Err())
		case inbox <- pkg:
		}
	}

	shares := make([]frost.SignatureShare, 0, threshold)
	for range inboxes {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("session interrupted during round 2: %w", ctx.Err())
		case res := <-shareCh:
			if res.err != nil {
				return nil, fmt.Errorf("signer %d failed to sign: %w", res.id, res.err)
			}
			shares = append(shares, res.share)
		}
	}

	sig, err := frost.Aggregate(pkg, shares, store.PublicKeys)
	if err != nil {
		return nil, err
	}

	result := &Result{Signature: sig.Serialize()}
	if err := frost.VerifySignature(sig, message, store.PublicKeys.GroupPublicKey); err == nil {
		result.Valid = true
	}

	return result, nil
}
