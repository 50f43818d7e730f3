package idutil

import (
	"github.com/bwmarrin/snowflake"
)

type Generator interface {
	Generate() string
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator returns a generator of base58 encoded snowflake ids.
// node must be unique across running instances, in [0, 1023].
func NewSnowflakeGenerator(node int64) (*snowflakeGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &snowflakeGenerator{node: n}, nil
}

func (g *snowflakeGenerator) Generate() string {
	return g.node.Generate().Base58()
}
