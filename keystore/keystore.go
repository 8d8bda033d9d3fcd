// Package keystore persists the long-lived key material produced by the
// dealer: one KeyPackage per participant plus the group's public record. The
// artifact is a single JSON file, fully rewritten on every save.
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/frostbit/frostbit/frost"
)

var (
	// ErrStoreNotFound is returned when the artifact doesn't exist.
	ErrStoreNotFound = errors.New("key material store not found")

	// ErrCorruptStore is returned when the artifact can't be read, parsed or
	// fails structural validation. The underlying cause is attached.
	ErrCorruptStore = errors.New("key material store is corrupt")
)

// Store is the ordered mapping from participant identifier to KeyPackage,
// plus the group-wide public record. KeyPackages is kept sorted by identifier
// so traversals are deterministic.
type Store struct {
	KeyPackages []frost.KeyPackage
	PublicKeys  frost.PublicKeyPackage
}

// New assembles a Store, sorting the key packages by identifier.
func New(packages []frost.KeyPackage, pubkeys frost.PublicKeyPackage) *Store {
	sorted := make([]frost.KeyPackage, len(packages))
	copy(sorted, packages)
	slices.SortFunc(sorted, func(a, b frost.KeyPackage) int { return a.ID - b.ID })

	return &Store{KeyPackages: sorted, PublicKeys: pubkeys}
}

// KeyPackage returns the package for the given identifier.
func (st *Store) KeyPackage(id int) (frost.KeyPackage, bool) {
	for _, kp := range st.KeyPackages {
		if kp.ID == id {
			return kp, true
		}
	}
	return frost.KeyPackage{}, false
}

type storedKeyPackage struct {
	ID             int    `json:"id"`
	SigningShare   string `json:"signing_share"`
	VerifyingShare string `json:"verifying_share"`
}

type storedStore struct {
	Threshold       int                `json:"threshold"`
	GroupPublicKey  string             `json:"group_public_key"`
	VerifyingShares map[string]string  `json:"verifying_shares"`
	KeyPackages     []storedKeyPackage `json:"key_packages"`
}

// Save writes the store to path atomically: the JSON artifact lands in a
// temporary file in the same directory and is renamed over the target only
// after a successful write, so an interrupted save leaves no partial state.
func (st *Store) Save(path string) error {
	stored := storedStore{
		Threshold:       st.PublicKeys.Threshold,
		GroupPublicKey:  hex.EncodeToString(frost.EncodePoint(st.PublicKeys.GroupPublicKey)),
		VerifyingShares: make(map[string]string, len(st.PublicKeys.VerifyingShares)),
		KeyPackages:     make([]storedKeyPackage, len(st.KeyPackages)),
	}

	for _, id := range st.PublicKeys.IDs() {
		stored.VerifyingShares[strconv.Itoa(id)] = hex.EncodeToString(frost.EncodePoint(st.PublicKeys.VerifyingShares[id]))
	}

	for i, kp := range st.KeyPackages {
		share := kp.SigningShare.Bytes()
		stored.KeyPackages[i] = storedKeyPackage{
			ID:             kp.ID,
			SigningShare:   hex.EncodeToString(share[:]),
			VerifyingShare: hex.EncodeToString(frost.EncodePoint(kp.VerifyingShare)),
		}
		for j := range share {
			share[j] = 0
		}
	}

	jdata, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}

	if _, err := tmp.Write(jdata); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to restrict store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush store: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move store into place: %w", err)
	}

	return nil
}

// Load reads the artifact at path and validates its structural integrity:
// identifiers unique and non-zero, points parseable, threshold within range,
// a verifying share registered for every package. It does not re-run the
// cryptographic share verification done at creation time.
func Load(path string) (*Store, error) {
	bdata, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}

	var stored storedStore
	if err := json.Unmarshal(bdata, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}

	st, err := restore(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}

	return st, nil
}

func restore(stored storedStore) (*Store, error) {
	// a store may legitimately hold fewer key packages than the threshold
	// (each participant keeps only its own); that is a signing-time error,
	// not corruption. The group record must cover the threshold though.
	if stored.Threshold < 1 || stored.Threshold > len(stored.VerifyingShares) {
		return nil, fmt.Errorf("threshold %d out of range for %d registered signers", stored.Threshold, len(stored.VerifyingShares))
	}

	groupKey, err := parseHexPoint(stored.GroupPublicKey)
	if err != nil {
		return nil, fmt.Errorf("bad group public key: %w", err)
	}

	verifyingShares := make(map[int]*btcec.JacobianPoint, len(stored.VerifyingShares))
	for sid, pointHex := range stored.VerifyingShares {
		id, err := strconv.Atoi(sid)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("bad verifying share identifier %q", sid)
		}
		pt, err := parseHexPoint(pointHex)
		if err != nil {
			return nil, fmt.Errorf("bad verifying share for signer %d: %w", id, err)
		}
		verifyingShares[id] = pt
	}

	packages := make([]frost.KeyPackage, len(stored.KeyPackages))
	for i, skp := range stored.KeyPackages {
		if skp.ID < 1 {
			return nil, fmt.Errorf("key package identifier %d is not a positive integer", skp.ID)
		}
		if i > 0 && stored.KeyPackages[i-1].ID >= skp.ID {
			return nil, fmt.Errorf("key packages are not sorted by unique identifier")
		}

		shareBytes, err := hex.DecodeString(skp.SigningShare)
		if err != nil || len(shareBytes) != 32 {
			return nil, fmt.Errorf("bad signing share encoding for signer %d", skp.ID)
		}
		share := new(btcec.ModNScalar)
		if overflow := share.SetByteSlice(shareBytes); overflow || share.IsZero() {
			return nil, fmt.Errorf("signing share for signer %d is zero or out of range", skp.ID)
		}
		for j := range shareBytes {
			shareBytes[j] = 0
		}

		verifying, err := parseHexPoint(skp.VerifyingShare)
		if err != nil {
			return nil, fmt.Errorf("bad verifying share encoding for signer %d: %w", skp.ID, err)
		}

		registered, ok := verifyingShares[skp.ID]
		if !ok {
			return nil, fmt.Errorf("no verifying share registered for signer %d", skp.ID)
		}
		if !registered.X.Equals(&verifying.X) || !registered.Y.Equals(&verifying.Y) {
			return nil, fmt.Errorf("verifying share mismatch for signer %d", skp.ID)
		}

		packages[i] = frost.KeyPackage{
			ID:             skp.ID,
			SigningShare:   share,
			VerifyingShare: verifying,
			GroupPublicKey: groupKey,
			Threshold:      stored.Threshold,
		}
	}

	return &Store{
		KeyPackages: packages,
		PublicKeys: frost.PublicKeyPackage{
			GroupPublicKey:  groupKey,
			VerifyingShares: verifyingShares,
			Threshold:       stored.Threshold,
		},
	}, nil
}

func parseHexPoint(s string) (*btcec.JacobianPoint, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return frost.ParsePoint(b)
}
