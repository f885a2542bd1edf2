package world

import (
	"fmt"
	"image/color"
	"strings"
)

// BlockType is the id of a cell. Ids are stored verbatim in persisted chunk
// records, so existing values must never be renumbered.
type BlockType uint8

const (
	BlockTypeAir BlockType = iota
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeStone
	BlockTypeSand
	BlockTypeWater
	BlockTypeWood
	BlockTypeLeaves
	BlockTypeBedrock

	numBlockTypes
)

// BlockTypeUnknown is returned for cells whose chunk is not loaded. It is
// never stored in a chunk.
const BlockTypeUnknown BlockType = 255

// Properties describes how a block type behaves and renders.
type Properties struct {
	Name        string
	Color       color.RGBA
	Solid       bool
	Transparent bool
	Opacity     float32
	Collidable  bool
	Pickable    bool
}

var blockTable = [numBlockTypes]Properties{
	BlockTypeAir:     {Name: "air", Transparent: true},
	BlockTypeGrass:   {Name: "grass", Color: color.RGBA{0x5b, 0x8c, 0x32, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
	BlockTypeDirt:    {Name: "dirt", Color: color.RGBA{0x86, 0x60, 0x43, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
	BlockTypeStone:   {Name: "stone", Color: color.RGBA{0x7f, 0x7f, 0x7f, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
	BlockTypeSand:    {Name: "sand", Color: color.RGBA{0xdb, 0xd3, 0xa0, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
	BlockTypeWater:   {Name: "water", Color: color.RGBA{0x3f, 0x76, 0xe4, 0xb3}, Transparent: true, Opacity: 0.7},
	BlockTypeWood:    {Name: "wood", Color: color.RGBA{0x6b, 0x51, 0x2f, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
	BlockTypeLeaves:  {Name: "leaves", Color: color.RGBA{0x3a, 0x7d, 0x22, 0xe6}, Solid: true, Transparent: true, Opacity: 0.9, Collidable: true, Pickable: true},
	BlockTypeBedrock: {Name: "bedrock", Color: color.RGBA{0x2b, 0x2b, 0x2b, 0xff}, Solid: true, Opacity: 1, Collidable: true, Pickable: true},
}

var unknownProperties = Properties{Name: "unknown", Transparent: true}

// Props returns the table entry for t. Unknown and out-of-range ids get a
// non-solid, non-pickable entry.
func (t BlockType) Props() Properties {
	if int(t) < len(blockTable) {
		return blockTable[t]
	}
	return unknownProperties
}

func (t BlockType) String() string { return t.Props().Name }

// Valid reports whether t may be stored in a chunk.
func (t BlockType) Valid() bool { return t < numBlockTypes }

func (t BlockType) IsSolid() bool { return t.Props().Solid }
func (t BlockType) IsPickable() bool { return t.Props().Pickable }

// ParseBlockType resolves a block name such as "stone".
func ParseBlockType(name string) (BlockType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range blockTable {
		if blockTable[i].Name == n {
			return BlockType(i), nil
		}
	}
	return BlockTypeUnknown, fmt.Errorf("unknown block type %q", name)
}

// BlockTypes lists every storable block type in id order.
func BlockTypes() []BlockType {
	out := make([]BlockType, numBlockTypes)
	for i := range out {
		out[i] = BlockType(i)
	}
	return out
}
