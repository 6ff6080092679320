package pairinteraction

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/SimonHollerith/pairinteraction/mat"
)

const (
	dirEntries    = "entries"
	dirBasis      = "basis"
	fnameMetadata = "metadata.json"
)

// Checkpoint is an exportable snapshot of a Hamiltonian together with the
// basis transform it is expressed in. It supports external disk caching of
// expensive diagonalizations: snapshots are keyed by content hashes of the
// entries and the basis separately, and round-trip bit for bit.
type Checkpoint struct {
	Entries *mat.COO
	Basis   *mat.COO
}

type checkpointMeta struct {
	EntriesHash uint64 `json:"entries_hash"`
	BasisHash   uint64 `json:"basis_hash"`
}

// EntriesHash returns the content hash of the Hamiltonian entries.
func (c *Checkpoint) EntriesHash() uint64 { return c.Entries.Hash() }

// BasisHash returns the content hash of the basis transform.
func (c *Checkpoint) BasisHash() uint64 { return c.Basis.Hash() }

// Save writes the snapshot under dir.
func (c *Checkpoint) Save(dir string) error {
	for _, sub := range []string{dirEntries, dirBasis} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := c.Entries.WriteCOO(filepath.Join(dir, dirEntries)); err != nil {
		return errors.Wrap(err, "")
	}
	if err := c.Basis.WriteCOO(filepath.Join(dir, dirBasis)); err != nil {
		return errors.Wrap(err, "")
	}

	meta := checkpointMeta{EntriesHash: c.EntriesHash(), BasisHash: c.BasisHash()}
	b, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameMetadata), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// LoadCheckpoint reads a snapshot from dir and verifies its content hashes.
func LoadCheckpoint(dir string) (*Checkpoint, error) {
	entries, err := mat.ReadCOO(filepath.Join(dir, dirEntries))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	basis, err := mat.ReadCOO(filepath.Join(dir, dirBasis))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	b, err := os.ReadFile(filepath.Join(dir, fnameMetadata))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	var meta checkpointMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, errors.Wrap(err, "")
	}

	c := &Checkpoint{Entries: entries, Basis: basis}
	if c.EntriesHash() != meta.EntriesHash {
		return nil, errors.Errorf("entries hash mismatch %d %d", c.EntriesHash(), meta.EntriesHash)
	}
	if c.BasisHash() != meta.BasisHash {
		return nil, errors.Errorf("basis hash mismatch %d %d", c.BasisHash(), meta.BasisHash)
	}
	return c, nil
}

// Checkpoint assembles the Hamiltonian and snapshots it with the current
// basis transform.
func (s *system[S]) Checkpoint() (*Checkpoint, error) {
	if err := s.rebuild(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &Checkpoint{Entries: s.hamiltonian.Clone(), Basis: s.basisvectors.Clone()}, nil
}
