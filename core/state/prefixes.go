package state

import "moneymarket/core/types"

// Key layout of the loans module inside the shared key-value store. Every
// record sits under a module prefix so unrelated modules never collide.
var (
	loansMarketPrefix  = []byte("loans/market/")
	loansStatsPrefix   = []byte("loans/stats/")
	loansDepositPrefix = []byte("loans/deposit/")
	loansBorrowPrefix  = []byte("loans/borrow/")

	// loansMarketIndexKey holds the sorted list of registered market assets.
	loansMarketIndexKey = []byte("loans/markets")
)

func loansMarketKey(asset types.AssetID) []byte {
	return append(append([]byte{}, loansMarketPrefix...), asset...)
}

func loansStatsKey(asset types.AssetID) []byte {
	return append(append([]byte{}, loansStatsPrefix...), asset...)
}

func loansPositionKey(prefix []byte, asset types.AssetID, account types.AccountID) []byte {
	key := append(append([]byte{}, prefix...), asset...)
	key = append(key, '/')
	return append(key, account...)
}

func loansDepositKey(asset types.AssetID, account types.AccountID) []byte {
	return loansPositionKey(loansDepositPrefix, asset, account)
}

func loansBorrowKey(asset types.AssetID, account types.AccountID) []byte {
	return loansPositionKey(loansBorrowPrefix, asset, account)
}
