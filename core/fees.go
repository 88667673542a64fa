package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	collectedPrefix = "fees:collected:"
	paidOutPrefix   = "fees:paidout:"
)

func collectedKey(committeeID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", collectedPrefix, committeeID))
}

func paidOutKey(member AccountID, committeeID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", paidOutPrefix, committeeID, member.String()))
}

// FeeEngine is the fee & reward engine: base-fee quoting from the
// gas oracle, per-committee collected-fee pools, and equal-share payouts
// tracked by a per-member claim watermark.
type FeeEngine struct {
	store  Store
	oracle OracleConfig
	log    *logrus.Entry
}

// NewFeeEngine returns a fee engine over store, configured with oracle.
func NewFeeEngine(store Store, oracle OracleConfig, log *logrus.Entry) *FeeEngine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if oracle.FreshnessWindow == 0 {
		oracle.FreshnessWindow = StaleThreshold
	}
	return &FeeEngine{store: store, oracle: oracle, log: log}
}

// SetOracle rewires the gas price oracle (the not-halted admin op
// set_gas_price_oracle).
func (f *FeeEngine) SetOracle(cfg OracleConfig) {
	if cfg.FreshnessWindow == 0 {
		cfg.FreshnessWindow = StaleThreshold
	}
	f.oracle = cfg
}

// OracleConfig returns the currently wired oracle configuration.
func (f *FeeEngine) OracleConfig() OracleConfig { return f.oracle }

// BaseFee computes clamp(oracle_price(), min, max) * relay_gas_usage *
// 1.20 in checked integer arithmetic. The oracle is queried afresh every
// call — no caching — and any error, staleness beyond the freshness
// window, or missing oracle configuration falls back to
// default_gas_price.
func (f *FeeEngine) BaseFee(ctx context.Context) (U128, error) {
	price := f.oracle.DefaultGasPrice

	if f.oracle.Oracle != nil {
		callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		quoted, ts, err := f.oracle.Oracle.GetPrice(callCtx)
		cancel()
		switch {
		case err != nil:
			f.log.WithError(err).Warn("gas oracle query failed, using default price")
		case time.Since(ts) > f.oracle.FreshnessWindow:
			f.log.WithField("age", time.Since(ts)).Warn("gas oracle price stale, using default price")
		default:
			price = clampU64(quoted, f.oracle.MinPrice, f.oracle.MaxPrice)
		}
	}

	scaled, overflow := NewU128(price).MulSmall(f.oracle.RelayGasUsage)
	if overflow {
		return U128{}, ErrOverflow
	}
	withMarkup, overflow := scaled.MulSmall(120)
	if overflow {
		return U128{}, ErrOverflow
	}
	return withMarkup.DivSmall(100), nil
}

func clampU64(v, lo, hi uint64) uint64 {
	if hi != 0 && v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

// CreditFee attributes fee to the committee active at send-time,
// preventing a later rotation from confiscating in-flight fees.
func (f *FeeEngine) CreditFee(committeeID uint64, fee U128) error {
	var collected U128
	if raw, ok := f.store.Get(collectedKey(committeeID)); ok {
		_ = json.Unmarshal(raw, &collected)
	}
	sum, overflow := collected.Add(fee)
	if overflow {
		return ErrOverflow
	}
	raw, _ := json.Marshal(sum)
	f.store.Set(collectedKey(committeeID), raw)
	return nil
}

// Collected returns the current collected-fee pool for committeeID.
func (f *FeeEngine) Collected(committeeID uint64) U128 {
	var collected U128
	if raw, ok := f.store.Get(collectedKey(committeeID)); ok {
		_ = json.Unmarshal(raw, &collected)
	}
	return collected
}

// PaidOut returns member's cumulative claim watermark against committeeID.
func (f *FeeEngine) PaidOut(member AccountID, committeeID uint64) U128 {
	var paid U128
	if raw, ok := f.store.Get(paidOutKey(member, committeeID)); ok {
		_ = json.Unmarshal(raw, &paid)
	}
	return paid
}

// Outstanding computes entitled - paid_out, saturating at zero. Integer
// division remainders are not drained from the pool; they roll forward
// as dust, per the design notes.
func (f *FeeEngine) Outstanding(member AccountID, committeeID uint64, committeeSize uint64) U128 {
	if committeeSize == 0 {
		return U128{}
	}
	entitled := f.Collected(committeeID).DivSmall(committeeSize)
	return entitled.SatSub(f.PaidOut(member, committeeID))
}

// RecordPayout bumps member's watermark by amount. Anyone may trigger a
// payout for any member — there is no caller check here; the funds
// always land at member regardless of who calls.
func (f *FeeEngine) RecordPayout(member AccountID, committeeID uint64, amount U128) error {
	paid := f.PaidOut(member, committeeID)
	sum, overflow := paid.Add(amount)
	if overflow {
		return ErrOverflow
	}
	raw, _ := json.Marshal(sum)
	f.store.Set(paidOutKey(member, committeeID), raw)
	return nil
}

// Pocket-money pool. Fee-pool funds and pocket-money funds are disjoint.

const pocketMoneyBalanceKey = "fees:pocketmoney:balance"

// PocketMoneyBalance returns the currently available pocket-money
// subsidy pool.
func (f *FeeEngine) PocketMoneyBalance() U128 {
	var bal U128
	if raw, ok := f.store.Get([]byte(pocketMoneyBalanceKey)); ok {
		_ = json.Unmarshal(raw, &bal)
	}
	return bal
}

// FundPocketMoney adds amount to the pocket-money pool (fund_pocket_money).
func (f *FeeEngine) FundPocketMoney(amount U128) error {
	bal := f.PocketMoneyBalance()
	sum, overflow := bal.Add(amount)
	if overflow {
		return ErrOverflow
	}
	raw, _ := json.Marshal(sum)
	f.store.Set([]byte(pocketMoneyBalanceKey), raw)
	return nil
}

// TryDisbursePocketMoney decrements the pool by pocketMoney and reports
// whether a disbursement should occur (balance >= pocketMoney). Pool
// depletion is not an error: the caller's mint must still succeed.
func (f *FeeEngine) TryDisbursePocketMoney(pocketMoney U128) bool {
	bal := f.PocketMoneyBalance()
	if bal.Cmp(pocketMoney) < 0 {
		return false
	}
	raw, _ := json.Marshal(bal.SatSub(pocketMoney))
	f.store.Set([]byte(pocketMoneyBalanceKey), raw)
	return true
}
