package configdef

import (
	"context"

	"github.com/tauraamui/xerror"
)

var ErrConfigAlreadyExists = xerror.New("config file already exists")

type Resolver interface {
	Resolve() (Values, error)
}

type Creator interface {
	Create() error
}

type Destroyer interface {
	Destroy() error
}

type CreateResolver interface {
	Creator
	Resolver
}

// Watcher reports config changes until ctx is done. The returned channel
// closes once watching has stopped.
type Watcher interface {
	Watch(ctx context.Context, onChange func(Values)) (<-chan interface{}, error)
}
