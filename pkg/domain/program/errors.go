package program

import (
	"fmt"

	"github.com/scopewatch/api/pkg/domain/shared"
)

var (
	// ErrProgramNotFound signals a lookup for a program that does not exist.
	ErrProgramNotFound = fmt.Errorf("program %w", shared.ErrNotFound)

	// ErrDuplicateHandle signals a create for an already monitored
	// (platform, handle) pair.
	ErrDuplicateHandle = fmt.Errorf("program handle %w", shared.ErrAlreadyExists)
)
