package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/dcalt/internal/models"
)

// Set groups the main and archive partitions of one installation.
type Set struct {
	Main    Partition
	Archive Partition
}

// Get returns the partition with the given name, or nil.
func (s *Set) Get(p models.Partition) Partition {
	switch p {
	case models.PartitionMain:
		return s.Main
	case models.PartitionArchive:
		return s.Archive
	}
	return nil
}

// All returns the partitions in coordinator visiting order.
func (s *Set) All() []Partition {
	return []Partition{s.Main, s.Archive}
}

func (s *Set) Init(ctx context.Context) error {
	for _, p := range s.All() {
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("init %s partition: %w", p.Name(), err)
		}
	}
	return nil
}

func (s *Set) Load(ctx context.Context) error {
	for _, p := range s.All() {
		if err := p.Load(ctx); err != nil {
			return fmt.Errorf("load %s partition: %w", p.Name(), err)
		}
	}
	return nil
}

func (s *Set) Close() error {
	var errs []error
	for _, p := range s.All() {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s partition: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ResolveURI locates the serving run an opaque reference points at.
func (s *Set) ResolveURI(ctx context.Context, raw string) (RunURI, models.ServingRun, error) {
	ref, err := ParseRunURI(raw)
	if err != nil {
		return RunURI{}, models.ServingRun{}, err
	}
	p := s.Get(ref.Partition)
	if p == nil {
		return ref, models.ServingRun{}, fmt.Errorf("partition %s not configured", ref.Partition)
	}
	run, err := p.GetServingRun(ctx, ref.ID)
	if err != nil {
		return ref, models.ServingRun{}, err
	}
	return ref, run, nil
}
