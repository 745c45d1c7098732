package source

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/anvil-platform/depstage/internal/deps"
)

// Batch is the ordered output of one collection sweep: every declaration from
// every provider, in provider-then-document order, before conflict
// resolution. Warnings carry the entries that had to be skipped.
type Batch struct {
	Declarations []deps.Declaration
	Warnings     []string
}

// Aggregator sweeps an ordered list of providers into one Batch. A provider
// that fails to read at all is downgraded to a warning so its siblings still
// contribute.
type Aggregator struct {
	log *zap.Logger
}

func NewAggregator(log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{log: log}
}

func (a *Aggregator) Collect(providers []Provider) Batch {
	var batch Batch
	for _, p := range providers {
		decls, warnings, err := p.ReadAll()
		if err != nil {
			a.log.Warn("dependency source unreadable, skipping it",
				zap.String("provider", p.Name()),
				zap.Error(err))
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		for _, w := range warnings {
			a.log.Warn("skipped malformed dependency entry",
				zap.String("provider", p.Name()),
				zap.String("detail", w))
		}
		batch.Warnings = append(batch.Warnings, warnings...)
		batch.Declarations = append(batch.Declarations, decls...)
	}
	a.log.Debug("collected dependency declarations",
		zap.Int("providers", len(providers)),
		zap.Int("declarations", len(batch.Declarations)),
		zap.Int("warnings", len(batch.Warnings)))
	return batch
}
