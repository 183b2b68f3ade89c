// Package marketeng implements the fee distribution, black-swan detection,
// margin-call matching, and feed-maintenance logic that sits above the raw
// order book (spec.md §4.4).
package marketeng

import (
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/internal/ledger"
)

// FeeConfig carries the fee percentages the chain config exposes.
type FeeConfig struct {
	MarketFeePct              float64 // per-asset issuer market fee, capped by MaxMarketFee
	MaxMarketFee              asset.Amount
	RegistrarReferrerSharePct float64 // fraction of the issuer fee rebated to registrar+referrer
	NetworkFeePct             float64 // fixed trading fee, separate from the issuer's market fee
	GovernanceSharePct        float64 // fraction of the trading fee paid to the governance pool
	ReferralSharePct          float64 // fraction of the trading fee paid to the referrer
}

// FeeBreakdown reports how a filled receive of value V was split, for
// virtual-op annotation and testing.
type FeeBreakdown struct {
	Gross              asset.Amount
	Net                asset.Amount
	IssuerFee          asset.Amount
	RegistrarReward    asset.Amount
	ReferrerReward     asset.Amount
	GovernanceReward   asset.Amount
	TradingReferrer    asset.Amount
	NetworkRemainder   asset.Amount
}

// DistributeReceiveFee credits receiver's liquid balance with v minus the
// combined issuer market fee and network trading fee, routing each fee
// component to its destination. The issuer's un-rebated market fee and the
// network's un-shared trading-fee remainder accumulate into the asset's
// AccumulatedFees and the chain's null-sink revenue respectively (spec.md
// §4.4, §4.2's null-sink accumulation rule).
func DistributeReceiveFee(l *ledger.Ledger, op, receiver, registrar, referrer string, referrerRewardsPct float64, symbol asset.Symbol, v asset.Amount, cfg FeeConfig) (FeeBreakdown, error) {
	bd := FeeBreakdown{Gross: v}
	if v <= 0 {
		return bd, nil
	}

	issuerFee := capped(scale(v, cfg.MarketFeePct), cfg.MaxMarketFee)
	registrarReferrerReward := scale(issuerFee, cfg.RegistrarReferrerSharePct)
	referrerReward := scale(registrarReferrerReward, referrerRewardsPct)
	registrarReward := registrarReferrerReward - referrerReward
	issuerRemainder := issuerFee - registrarReferrerReward

	networkFee := scale(v, cfg.NetworkFeePct)
	governanceReward := scale(networkFee, cfg.GovernanceSharePct)
	tradingReferrer := scale(networkFee, cfg.ReferralSharePct)
	networkRemainder := networkFee - governanceReward - tradingReferrer

	totalFee := issuerFee + networkFee
	net := v - totalFee
	if net < 0 {
		net = 0
		totalFee = v
	}

	bd.Net, bd.IssuerFee, bd.RegistrarReward, bd.ReferrerReward = net, issuerFee, registrarReward, referrerReward
	bd.GovernanceReward, bd.TradingReferrer, bd.NetworkRemainder = governanceReward, tradingReferrer, networkRemainder

	if err := l.AdjustLiquid(op, receiver, symbol, net); err != nil {
		return bd, err
	}
	if registrarReward > 0 && registrar != "" {
		if err := l.AdjustLiquid(op, registrar, symbol, registrarReward); err != nil {
			return bd, err
		}
	}
	if referrerReward > 0 && referrer != "" {
		if err := l.AdjustLiquid(op, referrer, symbol, referrerReward); err != nil {
			return bd, err
		}
	}
	l.Supply(symbol).AccumulatedFees += issuerRemainder

	if governanceReward > 0 {
		if err := l.Adjust(op, ledger.NullSink, symbol, asset.PoolLiquid, governanceReward); err != nil {
			return bd, err
		}
	}
	if tradingReferrer > 0 && referrer != "" {
		if err := l.AdjustLiquid(op, referrer, symbol, tradingReferrer); err != nil {
			return bd, err
		}
	}
	if networkRemainder > 0 {
		if err := l.Adjust(op, ledger.NullSink, symbol, asset.PoolLiquid, networkRemainder); err != nil {
			return bd, err
		}
	}
	return bd, nil
}

func scale(v asset.Amount, pct float64) asset.Amount {
	if pct <= 0 || v <= 0 {
		return 0
	}
	return asset.Amount(float64(v) * pct)
}

func capped(v, max asset.Amount) asset.Amount {
	if max > 0 && v > max {
		return max
	}
	return v
}
