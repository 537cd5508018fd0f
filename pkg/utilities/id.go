package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// InitSnowflake configures the node used by NewSnowflakeID. It must be called
// once at startup; ids generated before that use node 1.
func InitSnowflake(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewSnowflakeID returns the next snowflake id as int64, used as primary key
// for every inserted row.
func NewSnowflakeID() int64 {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	if node == nil {
		// node 1 always fits the default 10-bit node range
		node, _ = snowflake.NewNode(1)
	}
	return node.Generate().Int64()
}
