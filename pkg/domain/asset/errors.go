package asset

import (
	"fmt"

	"github.com/scopewatch/api/pkg/domain/shared"
)

var (
	// ErrAssetNotFound signals a lookup for an asset that does not exist.
	ErrAssetNotFound = fmt.Errorf("asset %w", shared.ErrNotFound)

	// ErrDuplicateValue signals a create for an already observed
	// (program id, value) pair.
	ErrDuplicateValue = fmt.Errorf("asset value %w", shared.ErrAlreadyExists)
)
