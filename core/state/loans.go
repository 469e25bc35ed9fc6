package state

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"moneymarket/core/types"
	"moneymarket/native/loans"
	"moneymarket/storage"
)

// LoansState is the durable implementation of the loans repository over a
// key-value database. Records are RLP encoded; every mutation is journaled so
// the engine's unit of work can roll a failed call back byte for byte.
type LoansState struct {
	db      storage.Database
	journal []func()
}

var _ loans.State = (*LoansState)(nil)

// NewLoansState wraps the database in a journaled loans repository.
func NewLoansState(db storage.Database) *LoansState {
	return &LoansState{db: db}
}

// Snapshot marks the current journal position.
func (s *LoansState) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every mutation recorded after the snapshot mark.
func (s *LoansState) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		return
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:id]
}

func (s *LoansState) write(key, value []byte) error {
	prev, existed, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if err := s.db.Put(key, value); err != nil {
		return err
	}
	db := s.db
	s.journal = append(s.journal, func() {
		if existed {
			_ = db.Put(key, prev)
		} else {
			_ = db.Delete(key)
		}
	})
	return nil
}

func (s *LoansState) delete(key []byte) error {
	prev, existed, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}
	if err := s.db.Delete(key); err != nil {
		return err
	}
	db := s.db
	s.journal = append(s.journal, func() {
		_ = db.Put(key, prev)
	})
	return nil
}

// Stored record shapes. RLP has no signed integers, so the accrual timestamp
// is persisted as uint64; nil big.Ints are normalized to zero before writing.

type storedMarket struct {
	CollateralFactor                 *big.Int
	LooseCollateralFactor            *big.Int
	ReserveFactor                    *big.Int
	CloseFactor                      *big.Int
	LiquidateIncentive               *big.Int
	LiquidateIncentiveReservedFactor *big.Int
	BaseRate                         *big.Int
	JumpRate                         *big.Int
	FullRate                         *big.Int
	JumpUtilization                  *big.Int
	State                            uint8
	SupplyCap                        *big.Int
	BorrowCap                        *big.Int
	VoucherAsset                     string
}

type storedStats struct {
	TotalSupply      *big.Int
	TotalBorrows     *big.Int
	TotalReserves    *big.Int
	BorrowIndex      *big.Int
	ExchangeRate     *big.Int
	UtilizationRatio *big.Int
	BorrowRate       *big.Int
	SupplyRate       *big.Int
	LastAccrualTime  uint64
}

type storedDeposit struct {
	VoucherBalance *big.Int
	IsCollateral   bool
}

type storedBorrow struct {
	Principal   *big.Int
	BorrowIndex *big.Int
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// GetMarket loads the market configuration, or nil when absent.
func (s *LoansState) GetMarket(asset types.AssetID) (*loans.Market, error) {
	raw, ok, err := s.db.Get(loansMarketKey(asset))
	if err != nil || !ok {
		return nil, err
	}
	var rec storedMarket
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: decode market %s: %w", asset, err)
	}
	return &loans.Market{
		CollateralFactor:                 rec.CollateralFactor,
		LooseCollateralFactor:            rec.LooseCollateralFactor,
		ReserveFactor:                    rec.ReserveFactor,
		CloseFactor:                      rec.CloseFactor,
		LiquidateIncentive:               rec.LiquidateIncentive,
		LiquidateIncentiveReservedFactor: rec.LiquidateIncentiveReservedFactor,
		RateModel:                        loans.NewRateModel(rec.BaseRate, rec.JumpRate, rec.FullRate, rec.JumpUtilization),
		State:                            loans.MarketState(rec.State),
		SupplyCap:                        rec.SupplyCap,
		BorrowCap:                        rec.BorrowCap,
		VoucherAssetID:                   types.AssetID(rec.VoucherAsset),
	}, nil
}

// PutMarket stores the market configuration and maintains the asset index.
func (s *LoansState) PutMarket(asset types.AssetID, market *loans.Market) error {
	if market == nil {
		return fmt.Errorf("state: nil market for %s", asset)
	}
	rec := storedMarket{
		CollateralFactor:                 bigOrZero(market.CollateralFactor),
		LooseCollateralFactor:            bigOrZero(market.LooseCollateralFactor),
		ReserveFactor:                    bigOrZero(market.ReserveFactor),
		CloseFactor:                      bigOrZero(market.CloseFactor),
		LiquidateIncentive:               bigOrZero(market.LiquidateIncentive),
		LiquidateIncentiveReservedFactor: bigOrZero(market.LiquidateIncentiveReservedFactor),
		BaseRate:                         bigOrZero(market.RateModel.BaseRate),
		JumpRate:                         bigOrZero(market.RateModel.JumpRate),
		FullRate:                         bigOrZero(market.RateModel.FullRate),
		JumpUtilization:                  bigOrZero(market.RateModel.JumpUtilization),
		State:                            uint8(market.State),
		SupplyCap:                        bigOrZero(market.SupplyCap),
		BorrowCap:                        bigOrZero(market.BorrowCap),
		VoucherAsset:                     market.VoucherAssetID.String(),
	}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("state: encode market %s: %w", asset, err)
	}
	if err := s.write(loansMarketKey(asset), encoded); err != nil {
		return err
	}
	return s.indexMarket(asset)
}

func (s *LoansState) indexMarket(asset types.AssetID) error {
	assets, err := s.MarketAssets()
	if err != nil {
		return err
	}
	for _, existing := range assets {
		if existing == asset {
			return nil
		}
	}
	assets = append(assets, asset)
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.String()
	}
	encoded, err := rlp.EncodeToBytes(names)
	if err != nil {
		return fmt.Errorf("state: encode market index: %w", err)
	}
	return s.write(loansMarketIndexKey, encoded)
}

// MarketAssets returns the registered market assets in sorted order.
func (s *LoansState) MarketAssets() ([]types.AssetID, error) {
	raw, ok, err := s.db.Get(loansMarketIndexKey)
	if err != nil || !ok {
		return nil, err
	}
	var names []string
	if err := rlp.DecodeBytes(raw, &names); err != nil {
		return nil, fmt.Errorf("state: decode market index: %w", err)
	}
	assets := make([]types.AssetID, len(names))
	for i, name := range names {
		assets[i] = types.AssetID(name)
	}
	return assets, nil
}

// GetStats loads the market accounting record, or nil when absent.
func (s *LoansState) GetStats(asset types.AssetID) (*loans.MarketStats, error) {
	raw, ok, err := s.db.Get(loansStatsKey(asset))
	if err != nil || !ok {
		return nil, err
	}
	var rec storedStats
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: decode stats %s: %w", asset, err)
	}
	return &loans.MarketStats{
		TotalSupply:      rec.TotalSupply,
		TotalBorrows:     rec.TotalBorrows,
		TotalReserves:    rec.TotalReserves,
		BorrowIndex:      rec.BorrowIndex,
		ExchangeRate:     rec.ExchangeRate,
		UtilizationRatio: rec.UtilizationRatio,
		BorrowRate:       rec.BorrowRate,
		SupplyRate:       rec.SupplyRate,
		LastAccrualTime:  int64(rec.LastAccrualTime),
	}, nil
}

// PutStats stores the market accounting record.
func (s *LoansState) PutStats(asset types.AssetID, stats *loans.MarketStats) error {
	if stats == nil {
		return fmt.Errorf("state: nil stats for %s", asset)
	}
	rec := storedStats{
		TotalSupply:      bigOrZero(stats.TotalSupply),
		TotalBorrows:     bigOrZero(stats.TotalBorrows),
		TotalReserves:    bigOrZero(stats.TotalReserves),
		BorrowIndex:      bigOrZero(stats.BorrowIndex),
		ExchangeRate:     bigOrZero(stats.ExchangeRate),
		UtilizationRatio: bigOrZero(stats.UtilizationRatio),
		BorrowRate:       bigOrZero(stats.BorrowRate),
		SupplyRate:       bigOrZero(stats.SupplyRate),
	}
	if stats.LastAccrualTime > 0 {
		rec.LastAccrualTime = uint64(stats.LastAccrualTime)
	}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("state: encode stats %s: %w", asset, err)
	}
	return s.write(loansStatsKey(asset), encoded)
}

// GetDeposit loads a voucher position, or nil when absent.
func (s *LoansState) GetDeposit(asset types.AssetID, account types.AccountID) (*loans.Deposits, error) {
	raw, ok, err := s.db.Get(loansDepositKey(asset, account))
	if err != nil || !ok {
		return nil, err
	}
	var rec storedDeposit
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: decode deposit %s/%s: %w", asset, account, err)
	}
	return &loans.Deposits{VoucherBalance: rec.VoucherBalance, IsCollateral: rec.IsCollateral}, nil
}

// PutDeposit stores a voucher position.
func (s *LoansState) PutDeposit(asset types.AssetID, account types.AccountID, deposit *loans.Deposits) error {
	if deposit == nil {
		return fmt.Errorf("state: nil deposit for %s/%s", asset, account)
	}
	rec := storedDeposit{VoucherBalance: bigOrZero(deposit.VoucherBalance), IsCollateral: deposit.IsCollateral}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("state: encode deposit %s/%s: %w", asset, account, err)
	}
	return s.write(loansDepositKey(asset, account), encoded)
}

// DeleteDeposit removes a voucher position.
func (s *LoansState) DeleteDeposit(asset types.AssetID, account types.AccountID) error {
	return s.delete(loansDepositKey(asset, account))
}

// GetBorrow loads a debt checkpoint, or nil when absent.
func (s *LoansState) GetBorrow(asset types.AssetID, account types.AccountID) (*loans.BorrowSnapshot, error) {
	raw, ok, err := s.db.Get(loansBorrowKey(asset, account))
	if err != nil || !ok {
		return nil, err
	}
	var rec storedBorrow
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("state: decode borrow %s/%s: %w", asset, account, err)
	}
	return &loans.BorrowSnapshot{Principal: rec.Principal, BorrowIndex: rec.BorrowIndex}, nil
}

// PutBorrow stores a debt checkpoint.
func (s *LoansState) PutBorrow(asset types.AssetID, account types.AccountID, snapshot *loans.BorrowSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("state: nil borrow for %s/%s", asset, account)
	}
	rec := storedBorrow{Principal: bigOrZero(snapshot.Principal), BorrowIndex: bigOrZero(snapshot.BorrowIndex)}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("state: encode borrow %s/%s: %w", asset, account, err)
	}
	return s.write(loansBorrowKey(asset, account), encoded)
}

// DeleteBorrow removes a debt checkpoint.
func (s *LoansState) DeleteBorrow(asset types.AssetID, account types.AccountID) error {
	return s.delete(loansBorrowKey(asset, account))
}
