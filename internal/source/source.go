// Package source defines the capability every upstream platform adapter
// implements. Each adapter speaks one external API or feed format and
// normalizes its payload into the common article shape.
package source

import (
	"context"

	"techtrends/internal/domain"
)

// Source is one upstream platform. Name must match the media-source
// catalog key the adapter collects for. FetchArticles returns the
// normalized batch; a whole-source failure (non-2xx, undecodable
// payload, missing credential) is returned as an error and isolated by
// the caller.
type Source interface {
	Name() string
	FetchArticles(ctx context.Context) ([]domain.Collected, error)
}
