package memory

import "github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"

// ErrNotFound aliases the repository-wide sentinel
var ErrNotFound = interfaces.ErrNotFound
