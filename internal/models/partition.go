package models

import "fmt"

// Partition identifies one of the two independently queryable record sets.
type Partition string

const (
	PartitionMain    Partition = "main"
	PartitionArchive Partition = "archive"
)

// Partitions lists every partition in the order the coordinator visits them.
var Partitions = []Partition{PartitionMain, PartitionArchive}

func (p Partition) Valid() bool {
	return p == PartitionMain || p == PartitionArchive
}

// ParsePartition converts a partition name into a Partition.
func ParsePartition(s string) (Partition, error) {
	p := Partition(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown partition %q (expected %q or %q)", s, PartitionMain, PartitionArchive)
	}
	return p, nil
}
