package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeOracle struct {
	price     uint64
	ts        time.Time
	err       error
}

func (f *fakeOracle) GetPrice(ctx context.Context) (uint64, time.Time, error) {
	return f.price, f.ts, f.err
}

func defaultOracleConfig() OracleConfig {
	return OracleConfig{
		MinPrice:        10,
		MaxPrice:        1000,
		DefaultGasPrice: 50,
		RelayGasUsage:   100,
	}
}

func TestBaseFeeFallsBackWithoutOracle(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	fee, err := f.BaseFee(context.Background())
	if err != nil {
		t.Fatalf("BaseFee: %v", err)
	}
	// default_gas_price(50) * relay_gas_usage(100) * 1.2 = 6000
	if fee.Cmp(NewU128(6000)) != 0 {
		t.Fatalf("got %v, want 6000", fee)
	}
}

func TestBaseFeeUsesOracleWhenFresh(t *testing.T) {
	cfg := defaultOracleConfig()
	cfg.Oracle = &fakeOracle{price: 20, ts: time.Now()}
	f := NewFeeEngine(NewMemStore(), cfg, nil)
	fee, err := f.BaseFee(context.Background())
	if err != nil {
		t.Fatalf("BaseFee: %v", err)
	}
	// 20 * 100 * 1.2 = 2400
	if fee.Cmp(NewU128(2400)) != 0 {
		t.Fatalf("got %v, want 2400", fee)
	}
}

func TestBaseFeeFallsBackOnStaleOracle(t *testing.T) {
	cfg := defaultOracleConfig()
	cfg.Oracle = &fakeOracle{price: 20, ts: time.Now().Add(-48 * time.Hour)}
	f := NewFeeEngine(NewMemStore(), cfg, nil)
	fee, err := f.BaseFee(context.Background())
	if err != nil {
		t.Fatalf("BaseFee: %v", err)
	}
	if fee.Cmp(NewU128(6000)) != 0 {
		t.Fatalf("got %v, want fallback 6000", fee)
	}
}

func TestBaseFeeFallsBackOnOracleError(t *testing.T) {
	cfg := defaultOracleConfig()
	cfg.Oracle = &fakeOracle{err: errors.New("rpc down")}
	f := NewFeeEngine(NewMemStore(), cfg, nil)
	fee, err := f.BaseFee(context.Background())
	if err != nil {
		t.Fatalf("BaseFee: %v", err)
	}
	if fee.Cmp(NewU128(6000)) != 0 {
		t.Fatalf("got %v, want fallback 6000", fee)
	}
}

func TestBaseFeeClampsOraclePrice(t *testing.T) {
	cfg := defaultOracleConfig()
	cfg.Oracle = &fakeOracle{price: 5000, ts: time.Now()}
	f := NewFeeEngine(NewMemStore(), cfg, nil)
	fee, err := f.BaseFee(context.Background())
	if err != nil {
		t.Fatalf("BaseFee: %v", err)
	}
	// clamped to MaxPrice(1000) * 100 * 1.2 = 120000
	if fee.Cmp(NewU128(120000)) != 0 {
		t.Fatalf("got %v, want 120000 (clamped)", fee)
	}
}

func TestCreditFeeAccumulatesPerCommittee(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	if err := f.CreditFee(1, NewU128(100)); err != nil {
		t.Fatalf("CreditFee: %v", err)
	}
	if err := f.CreditFee(1, NewU128(50)); err != nil {
		t.Fatalf("CreditFee: %v", err)
	}
	if err := f.CreditFee(2, NewU128(999)); err != nil {
		t.Fatalf("CreditFee: %v", err)
	}
	if got := f.Collected(1); got.Cmp(NewU128(150)) != 0 {
		t.Fatalf("got %v, want 150", got)
	}
	if got := f.Collected(2); got.Cmp(NewU128(999)) != 0 {
		t.Fatalf("got %v, want 999", got)
	}
}

func TestOutstandingDividesEquallyAndLeavesDust(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	f.CreditFee(1, NewU128(100))
	// committee size 3: entitled = floor(100/3) = 33 each, 1 dust remains in pool
	a := mustAccount(t, 1)
	out := f.Outstanding(a, 1, 3)
	if out.Cmp(NewU128(33)) != 0 {
		t.Fatalf("got %v, want 33", out)
	}
}

func TestOutstandingSubtractsPaidOut(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	f.CreditFee(1, NewU128(90))
	a := mustAccount(t, 1)
	if err := f.RecordPayout(a, 1, NewU128(10)); err != nil {
		t.Fatalf("RecordPayout: %v", err)
	}
	// entitled = 30, paid = 10 -> outstanding 20
	if out := f.Outstanding(a, 1, 3); out.Cmp(NewU128(20)) != 0 {
		t.Fatalf("got %v, want 20", out)
	}
}

func TestOutstandingZeroCommitteeSize(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	if out := f.Outstanding(mustAccount(t, 1), 1, 0); !out.IsZero() {
		t.Fatalf("got %v, want zero", out)
	}
}

func TestPocketMoneyFundAndDisburse(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	if err := f.FundPocketMoney(NewU128(1000)); err != nil {
		t.Fatalf("FundPocketMoney: %v", err)
	}
	if !f.TryDisbursePocketMoney(NewU128(300)) {
		t.Fatal("expected disbursement to succeed")
	}
	if got := f.PocketMoneyBalance(); got.Cmp(NewU128(700)) != 0 {
		t.Fatalf("got %v, want 700", got)
	}
}

func TestPocketMoneyDisburseFailsWhenDepleted(t *testing.T) {
	f := NewFeeEngine(NewMemStore(), defaultOracleConfig(), nil)
	f.FundPocketMoney(NewU128(100))
	if f.TryDisbursePocketMoney(NewU128(200)) {
		t.Fatal("expected disbursement to fail when pool insufficient")
	}
	if got := f.PocketMoneyBalance(); got.Cmp(NewU128(100)) != 0 {
		t.Fatalf("pool must be untouched on failed disbursement: got %v", got)
	}
}
