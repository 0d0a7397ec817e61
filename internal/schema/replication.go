package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ReplicationStrategy renders the CQL replication map literal used in a
// CREATE KEYSPACE statement.
type ReplicationStrategy interface {
	CQL() string
}

// SimpleStrategy is the default for single-datacenter clusters.
type SimpleStrategy struct {
	ReplicationFactor int
}

func (s SimpleStrategy) CQL() string {
	return fmt.Sprintf("{'class': 'SimpleStrategy', 'replication_factor': %d}", s.ReplicationFactor)
}

// NetworkTopologyStrategy assigns a replication factor per datacenter.
type NetworkTopologyStrategy struct {
	DataCenters map[string]int
}

func (s NetworkTopologyStrategy) CQL() string {
	names := make([]string, 0, len(s.DataCenters))
	for dc := range s.DataCenters {
		names = append(names, dc)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, dc := range names {
		parts = append(parts, fmt.Sprintf("'%s': %d", dc, s.DataCenters[dc]))
	}
	return fmt.Sprintf("{'class': 'NetworkTopologyStrategy', %s}", strings.Join(parts, ", "))
}
