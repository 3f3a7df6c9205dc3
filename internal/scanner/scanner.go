package scanner

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/metrics"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

// MarketSource is the external venue the scanner polls. An empty result
// with a nil error means "scanned, nothing found" and must not be treated
// as a failure.
type MarketSource interface {
	Scan(ctx context.Context, assets []string, minProfit float64) ([]types.Opportunity, error)
	SupportedAssets(ctx context.Context) ([]string, error)
}

// Scanner normalizes opportunities from the primary source and substitutes
// the synthetic generator when the primary errors, so the control loop
// keeps a deterministic shape in degraded operation.
type Scanner struct {
	src   MarketSource
	synth *Synthetic
	log   *zap.Logger
}

func New(src MarketSource, synth *Synthetic, log *zap.Logger) *Scanner {
	return &Scanner{src: src, synth: synth, log: log}
}

// Scan polls the primary source once. On a primary failure it returns the
// synthetic set together with the error: the caller counts the failure but
// still has opportunities to assess.
func (s *Scanner) Scan(ctx context.Context, assets []string, minProfit float64) ([]types.Opportunity, error) {
	metrics.ScansTotal.Inc()

	opps, err := s.src.Scan(ctx, assets, minProfit)
	if err != nil {
		metrics.ScanFailures.Inc()
		s.log.Warn("primary market source failed, falling back to synthetic generator", zap.Error(err))
		opps = s.synth.Generate(assets)
		sortOpportunities(opps)
		for _, o := range opps {
			metrics.OpportunitiesFound.WithLabelValues(string(o.Source)).Inc()
		}
		return opps, fmt.Errorf("scanner: primary source: %w", err)
	}

	sortOpportunities(opps)
	for _, o := range opps {
		metrics.OpportunitiesFound.WithLabelValues(string(o.Source)).Inc()
	}
	return opps, nil
}

// sortOpportunities orders by profit percentage descending; ties go to the
// earliest discovery.
func sortOpportunities(opps []types.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ProfitPct != opps[j].ProfitPct {
			return opps[i].ProfitPct > opps[j].ProfitPct
		}
		return opps[i].DiscoveredAt.Before(opps[j].DiscoveredAt)
	})
}
