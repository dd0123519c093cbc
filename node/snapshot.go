package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// snapshotFormatVersion is the format-version byte §6 requires every
// persisted artifact to carry: opening a newer version with an older
// binary fails fast rather than silently misreading fields.
const snapshotFormatVersion = 1

// ErrIncompatibleSnapshotVersion is returned by VerifySnapshot when the
// file's format_version is newer (or otherwise not understood) by this
// build — the CLI maps this to exit code 4.
var ErrIncompatibleSnapshotVersion = errors.New("snapshot: incompatible format version")

// ErrCorruptSnapshot wraps any decode failure on an otherwise
// version-compatible snapshot file — the CLI maps this to exit code 3.
var ErrCorruptSnapshot = errors.New("snapshot: corrupt content")

type snapshotFile struct {
	FormatVersion uint32         `json:"format_version"`
	ChainState    chainStateDisk `json:"chain_state"`
}

// ExportSnapshot writes the node's chain-state tip pointer and difficulty
// EMA to a standalone, versioned JSON file at path. The block store itself
// is not duplicated here — snapshot export is meant for quick tip/Θ
// portability and crash-recovery auditing, not as a full chain backup.
func ExportSnapshot(cs *ChainState, path string) error {
	if cs == nil {
		return errors.New("snapshot: nil chainstate")
	}
	payload := snapshotFile{
		FormatVersion: snapshotFormatVersion,
		ChainState:    stateToDisk(cs),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o640)
}

// VerifySnapshot reads and decodes a snapshot file written by
// ExportSnapshot, enforcing the format-version check before anything else:
// a version this build does not recognize is ErrIncompatibleSnapshotVersion,
// never a generic decode error. A version match that still fails to decode
// or fails its internal chain-state invariants is ErrCorruptSnapshot.
func VerifySnapshot(path string) (*ChainState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}

	var probe struct {
		FormatVersion uint32 `json:"format_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if probe.FormatVersion != snapshotFormatVersion {
		return nil, fmt.Errorf("%w: file version %d, supported %d", ErrIncompatibleSnapshotVersion, probe.FormatVersion, snapshotFormatVersion)
	}

	var payload snapshotFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	cs, err := chainStateFromDisk(payload.ChainState)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return cs, nil
}
