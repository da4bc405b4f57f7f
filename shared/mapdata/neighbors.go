package mapdata

import (
	"VoxelStream/shared/pkg/assert"
	"VoxelStream/shared/util"
)

// Neighbor retorna o chunk adjacente na direção f, ou nil.
func (c *Chunk) Neighbor(f util.Face) *Chunk {
	c.nmu.RLock()
	defer c.nmu.RUnlock()
	return c.neighbors[f]
}

// LinkedCount retorna quantos dos seis slots estão preenchidos.
func (c *Chunk) LinkedCount() int {
	c.nmu.RLock()
	defer c.nmu.RUnlock()
	n := 0
	for _, other := range c.neighbors {
		if other != nil {
			n++
		}
	}
	return n
}

// AllLinked indica se os seis vizinhos estão ligados.
func (c *Chunk) AllLinked() bool {
	return c.LinkedCount() == util.FaceCount
}

// lockPair trava os slots de dois chunks sempre na mesma ordem (ordem total das coordenadas).
func lockPair(a, b *Chunk) (unlock func()) {
	first, second := a, b
	if b.coord.Less(a.coord) {
		first, second = b, a
	}
	first.nmu.Lock()
	second.nmu.Lock()
	return func() {
		second.nmu.Unlock()
		first.nmu.Unlock()
	}
}

// LinkNeighbor liga other ao slot f deste chunk e este chunk ao slot oposto de
// other, mantendo a simetria. Os dois lados são avisados de que os blocos
// mudaram. Ligar um par já ligado não faz nada. Retorna true se houve ligação.
func (c *Chunk) LinkNeighbor(f util.Face, other *Chunk) bool {
	if other == nil {
		return false
	}
	if !assert.IsTrue(other != c, "%v ligado a si mesmo", c) {
		return false
	}
	if !assert.IsTrue(other.coord.Equals(c.coord.Add(f.Offset())),
		"%v não é vizinho %v de %v", other, f, c) {
		return false
	}
	if !assert.IsTrue(!c.Destroyed() && !other.Destroyed(), "ligação com chunk destruído: %v %v", c, other) {
		return false
	}

	opp := f.Opposite()
	unlock := lockPair(c, other)
	mine, theirs := c.neighbors[f], other.neighbors[opp]
	if mine == other && theirs == c {
		unlock()
		return false
	}
	if !assert.IsTrue(mine == nil && theirs == nil,
		"slots ocupados ao ligar %v %v %v", c, f, other) {
		unlock()
		return false
	}
	c.neighbors[f] = other
	other.neighbors[opp] = c
	unlock()

	other.NotifyBlocksChanged()
	c.NotifyBlocksChanged()
	return true
}

// UnlinkAll desfaz todas as ligações (limpando o slot de volta em cada vizinho)
// e invalida a geometria do chunk. Retorna os vizinhos que estavam ligados.
func (c *Chunk) UnlinkAll() []*Chunk {
	var former []*Chunk
	for _, f := range util.Faces {
		other := c.Neighbor(f)
		if other == nil {
			continue
		}
		unlock := lockPair(c, other)
		if c.neighbors[f] == other {
			back := other.neighbors[f.Opposite()]
			if assert.IsTrue(back == c, "simetria quebrada entre %v e %v (%v)", c, other, f) {
				other.neighbors[f.Opposite()] = nil
			}
			c.neighbors[f] = nil
			former = append(former, other)
		}
		unlock()
	}
	c.Clear(HasMesh | HasCollisionMesh)
	return former
}

// CheckSymmetry verifica a simetria dos slots (testes e modo debug).
func (c *Chunk) CheckSymmetry() bool {
	for _, f := range util.Faces {
		other := c.Neighbor(f)
		if other != nil && other.Neighbor(f.Opposite()) != c {
			return false
		}
	}
	return true
}
