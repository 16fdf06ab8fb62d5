package param

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

// Source describes where a secret comes from. A non-empty Value wins over
// Path; when both are empty the secret resolves to "".
type Source struct {
	Name  string
	Value string
	Path  string
}

func (s Source) remote() bool {
	return s.Value == "" && s.Path != ""
}

// NeedsFetcher reports whether any source has to be read from a Fetcher.
func NeedsFetcher(sources []Source) bool {
	return lo.SomeBy(sources, Source.remote)
}

// Resolve returns the secret for every source keyed by name. Remote
// sources are fetched concurrently.
func Resolve(ctx context.Context, fetcher Fetcher, sources []Source) (map[string]string, error) {
	values := make([]string, len(sources))

	group, ctx := errgroup.WithContext(ctx)
	for idx, src := range sources {
		if !src.remote() {
			values[idx] = src.Value
			continue
		}
		if fetcher == nil {
			return nil, fmt.Errorf("secret %s: no fetcher for path %s", src.Name, src.Path)
		}
		idx, src := idx, src
		group.Go(func() error {
			v, err := fetcher.Fetch(ctx, src.Path)
			if err != nil {
				return fmt.Errorf("secret %s: %w", src.Name, err)
			}
			values[idx] = v
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return lo.Associate(lo.Zip2(sources, values), func(t lo.Tuple2[Source, string]) (string, string) {
		return t.A.Name, t.B
	}), nil
}
