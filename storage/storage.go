package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/celer-network/go-zkrollup/db"
	"github.com/celer-network/go-zkrollup/types"
)

const checkpointSize = 4 + 8

var errInvalidCheckpoint = errors.New("invalid checkpoint encoding")

// Checkpoint records the last sealed block. It survives deletion of the block
// itself, so numbering resumes correctly after committed blocks are pruned.
type Checkpoint struct {
	BlockNumber types.BlockNumber
	// NextPriorityOp is the first priority operation not yet included in a
	// block.
	NextPriorityOp uint64
}

// BlockStore persists sealed blocks until the commitment stage consumes them.
type BlockStore struct {
	db db.DB
}

func NewBlockStore(database db.DB) *BlockStore {
	return &BlockStore{
		db: database,
	}
}

func blockKey(blockNumber types.BlockNumber) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(blockNumber))
	return key
}

func encodeCheckpoint(checkpoint *Checkpoint) []byte {
	data := make([]byte, checkpointSize)
	binary.BigEndian.PutUint32(data[:4], uint32(checkpoint.BlockNumber))
	binary.BigEndian.PutUint64(data[4:], checkpoint.NextPriorityOp)
	return data
}

func decodeCheckpoint(data []byte) (*Checkpoint, error) {
	if len(data) != checkpointSize {
		return nil, fmt.Errorf("%w: %d bytes", errInvalidCheckpoint, len(data))
	}
	return &Checkpoint{
		BlockNumber:    types.BlockNumber(binary.BigEndian.Uint32(data[:4])),
		NextPriorityOp: binary.BigEndian.Uint64(data[4:]),
	}, nil
}

// PutBlock stores the block and moves the checkpoint forward if the block is
// the newest one. Both writes commit together.
func (s *BlockStore) PutBlock(block *types.IncompleteBlock) error {
	data, err := block.SerializeForStorage()
	if err != nil {
		return err
	}
	checkpoint, found, err := s.LastCheckpoint()
	if err != nil {
		return err
	}

	tx := s.db.NewTx()
	if err := tx.Set(db.NamespaceIncompleteBlock, blockKey(block.BlockNumber), data); err != nil {
		tx.Discard()
		return err
	}
	if !found || block.BlockNumber >= checkpoint.BlockNumber {
		next := &Checkpoint{
			BlockNumber:    block.BlockNumber,
			NextPriorityOp: block.ProcessedPriorityOps.After,
		}
		if err := tx.Set(db.NamespaceCheckpoint, db.EmptyKey, encodeCheckpoint(next)); err != nil {
			tx.Discard()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Store IncompleteBlock %d: %w", block.BlockNumber, err)
	}
	return nil
}

func (s *BlockStore) GetBlock(blockNumber types.BlockNumber) (*types.IncompleteBlock, bool, error) {
	data, found, err := s.db.Get(db.NamespaceIncompleteBlock, blockKey(blockNumber))
	if err != nil || !found {
		return nil, false, err
	}
	block, err := types.DeserializeIncompleteBlockFromStorage(data)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

func (s *BlockStore) HasBlock(blockNumber types.BlockNumber) (bool, error) {
	return s.db.Exist(db.NamespaceIncompleteBlock, blockKey(blockNumber))
}

// DeleteBlock removes a block, typically once its commitment is stored. The
// checkpoint is left untouched.
func (s *BlockStore) DeleteBlock(blockNumber types.BlockNumber) error {
	return s.db.Delete(db.NamespaceIncompleteBlock, blockKey(blockNumber))
}

func (s *BlockStore) LastCheckpoint() (*Checkpoint, bool, error) {
	data, found, err := s.db.Get(db.NamespaceCheckpoint, db.EmptyKey)
	if err != nil || !found {
		return nil, false, err
	}
	checkpoint, err := decodeCheckpoint(data)
	if err != nil {
		return nil, false, err
	}
	return checkpoint, true, nil
}

// ListBlockNumbers returns the numbers of the stored blocks in ascending
// order.
func (s *BlockStore) ListBlockNumbers() ([]types.BlockNumber, error) {
	start, end := db.NamespaceRange(db.NamespaceIncompleteBlock)
	iter := s.db.Iterator(start, end)
	defer iter.Close()

	var numbers []types.BlockNumber
	for ; iter.Valid(); iter.Next() {
		key, err := iter.Key()
		if err != nil {
			return nil, err
		}
		key = db.StripNamespace(db.NamespaceIncompleteBlock, key)
		if len(key) != 4 {
			return nil, fmt.Errorf("unexpected block key %x", key)
		}
		numbers = append(numbers, types.BlockNumber(binary.BigEndian.Uint32(key)))
	}
	return numbers, nil
}
