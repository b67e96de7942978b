package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config describes a demo store for zheapctl to explain or audit: a
// snapshot of a page's transaction slots, its undo log, and the live
// tuples on it. It exists because the module ships no real storage
// layer of its own; a real deployment would point the CLI at a running
// server instead of a config file.
type Config struct {
	Store StoreConfig `toml:"store"`
}

type StoreConfig struct {
	Current  uint64        `toml:"current"`
	Horizon  uint64        `toml:"horizon"`
	NumSlots int           `toml:"num_slots"`
	Slots    []SlotConfig  `toml:"slots"`
	Undo     []UndoConfig  `toml:"undo"`
	Tuples   []TupleConfig `toml:"tuples"`
}

type SlotConfig struct {
	Index         int    `toml:"index"`
	Xid           uint64 `toml:"xid"`
	Committed     bool   `toml:"committed"`
	InProgress    bool   `toml:"in_progress"`
	UndoBlock     uint32 `toml:"undo_block"`
	UndoOffset    uint64 `toml:"undo_offset"`
	HasUndo       bool   `toml:"has_undo"`
	HideFromSnaps bool   `toml:"hide_from_snapshot"`
}

type UndoConfig struct {
	Block       uint32 `toml:"block"`
	Offset      uint64 `toml:"offset"`
	Type        string `toml:"type"`
	PrevXid     uint64 `toml:"prev_xid"`
	Cid         uint32 `toml:"cid"`
	BlkPrevSet  bool   `toml:"blkprev_set"`
	BlkPrev     uint64 `toml:"blkprev"`
	BlkBlock    uint32 `toml:"blkprev_block"`
	Slot        int    `toml:"slot"`
	Balance     string `toml:"balance"`
	SuccBlock   uint32 `toml:"successor_block"`
	SuccOffset  uint16 `toml:"successor_offset"`
	Discarded   bool   `toml:"discarded"`
	FlagDeleted bool   `toml:"flag_deleted"`
	FlagUpdated bool   `toml:"flag_updated"`
	FlagInplace bool   `toml:"flag_inplace_updated"`
	FlagLock    bool   `toml:"flag_lock_only"`
}

type TupleConfig struct {
	Block    uint32 `toml:"block"`
	Offset   uint16 `toml:"offset"`
	Slot     int    `toml:"slot"`
	Deleted  bool   `toml:"deleted"`
	Updated  bool   `toml:"updated"`
	Inplace  bool   `toml:"inplace_updated"`
	LockOnly bool   `toml:"lock_only"`
	Invalid  bool   `toml:"invalid_xact_slot"`
	Balance  string `toml:"balance"`
	Cid      uint32 `toml:"cid"`
	HasCid   bool   `toml:"has_cid"`
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("zheapctl: reading config %s: %w", path, err)
	}
	return &cfg, nil
}
