package mapdata

import "fmt"

// Block é o tipo de um voxel, um byte por voxel.
type Block uint8

const (
	BlockEmpty Block = 0
	BlockDirt  Block = 1
	BlockRock  Block = 2

	// BlockUndefined é devolvido quando a consulta não pode ser resolvida
	// (vizinho inexistente). Nunca é gravado num chunk.
	BlockUndefined Block = 255
)

// IsTransparent indica se a face de um vizinho sólido fica visível contra este bloco.
// Só o vazio é transparente; Undefined conta como opaco.
func (b Block) IsTransparent() bool {
	return b == BlockEmpty
}

// IsSolid indica se o bloco ocupa o voxel.
func (b Block) IsSolid() bool {
	return b != BlockEmpty && b != BlockUndefined
}

// Valid indica se o valor pode ser armazenado num chunk.
func (b Block) Valid() bool {
	return b <= BlockRock
}

func (b Block) String() string {
	switch b {
	case BlockEmpty:
		return "empty"
	case BlockDirt:
		return "dirt"
	case BlockRock:
		return "rock"
	case BlockUndefined:
		return "undefined"
	}
	return fmt.Sprintf("Block(%d)", uint8(b))
}
