// Package placement puts compiled artifacts somewhere besides the place the
// compiler wrote them: another local directory or an S3-compatible bucket.
// The direct policy has no secondary step at all.
package placement

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a placement policy.
type Kind string

const (
	Direct      Kind = "direct"
	Copy        Kind = "copy"
	ObjectStore Kind = "objectstore"
)

// ParseKind accepts a policy name, case-insensitively. The empty string is
// Direct.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", Direct:
		return Direct, nil
	case Copy, ObjectStore:
		return k, nil
	default:
		return "", fmt.Errorf("unknown placement policy %q: must be 'direct', 'copy' or 'objectstore'", s)
	}
}

// Config selects and parameterizes a placement policy.
type Config struct {
	Kind        Kind
	Destination string // local directory for Copy
	Store       StoreConfig
}

// Placer performs the secondary placement of one artifact.
type Placer interface {
	// Place copies the artifact at path, published under name, and returns
	// where it ended up.
	Place(ctx context.Context, path, name string) (string, error)
	// String describes the destination for log records.
	String() string
}

// Preparer is implemented by placers that need a setup step before the
// first artifact arrives.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// New builds the placer for cfg. Direct placement returns a nil Placer.
func New(cfg Config) (Placer, error) {
	switch cfg.Kind {
	case "", Direct:
		return nil, nil
	case Copy:
		if cfg.Destination == "" {
			return nil, fmt.Errorf("copy placement requires a destination directory")
		}
		return NewLocalCopy(cfg.Destination), nil
	case ObjectStore:
		b, err := NewObjectStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown placement policy %q", cfg.Kind)
	}
}
