package loans

import (
	"math/big"

	"moneymarket/core/events"
	"moneymarket/core/types"
)

const (
	// EventTypeMarketAdded is emitted when an admin registers a new market.
	EventTypeMarketAdded = "loans.market.added"
	// EventTypeMarketUpdated is emitted when an admin reconfigures a market.
	EventTypeMarketUpdated = "loans.market.updated"
	// EventTypeMarketActivated is emitted when a pending market goes live.
	EventTypeMarketActivated = "loans.market.activated"
	// EventTypeMarketSupervised is emitted when the supervision freeze toggles.
	EventTypeMarketSupervised = "loans.market.supervised"
	// EventTypeMinted is emitted when a supplier deposits underlying.
	EventTypeMinted = "loans.minted"
	// EventTypeRedeemed is emitted when vouchers are redeemed for underlying.
	EventTypeRedeemed = "loans.redeemed"
	// EventTypeBorrowed is emitted on a successful borrow.
	EventTypeBorrowed = "loans.borrowed"
	// EventTypeRepaid is emitted on a successful repayment.
	EventTypeRepaid = "loans.repaid"
	// EventTypeCollateralToggled is emitted when a deposit's collateral flag flips.
	EventTypeCollateralToggled = "loans.collateral.toggled"
	// EventTypeVouchersTransferred is emitted on a voucher balance transfer.
	EventTypeVouchersTransferred = "loans.vouchers.transferred"
	// EventTypeLiquidated is emitted when collateral is seized from a borrower.
	EventTypeLiquidated = "loans.liquidated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func amountAttr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func marketEvent(eventType string, asset types.AssetID, market *Market) *types.Event {
	attrs := map[string]string{
		"asset": asset.String(),
	}
	if market != nil {
		attrs["state"] = market.State.String()
		attrs["voucherAsset"] = market.VoucherAssetID.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func mintedEvent(who types.AccountID, asset types.AssetID, amount, vouchers *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"supplier": who.String(),
			"asset":    asset.String(),
			"amount":   amountAttr(amount),
			"vouchers": amountAttr(vouchers),
		},
	}
}

func redeemedEvent(who types.AccountID, asset types.AssetID, vouchers, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRedeemed,
		Attributes: map[string]string{
			"supplier": who.String(),
			"asset":    asset.String(),
			"vouchers": amountAttr(vouchers),
			"amount":   amountAttr(amount),
		},
	}
}

func borrowedEvent(who types.AccountID, asset types.AssetID, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBorrowed,
		Attributes: map[string]string{
			"borrower": who.String(),
			"asset":    asset.String(),
			"amount":   amountAttr(amount),
		},
	}
}

func repaidEvent(who types.AccountID, asset types.AssetID, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRepaid,
		Attributes: map[string]string{
			"borrower": who.String(),
			"asset":    asset.String(),
			"amount":   amountAttr(amount),
		},
	}
}

func collateralToggledEvent(who types.AccountID, asset types.AssetID, enabled bool) *types.Event {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return &types.Event{
		Type: EventTypeCollateralToggled,
		Attributes: map[string]string{
			"account": who.String(),
			"asset":   asset.String(),
			"state":   state,
		},
	}
}

func vouchersTransferredEvent(from, to types.AccountID, asset types.AssetID, vouchers *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeVouchersTransferred,
		Attributes: map[string]string{
			"from":     from.String(),
			"to":       to.String(),
			"asset":    asset.String(),
			"vouchers": amountAttr(vouchers),
		},
	}
}

func liquidatedEvent(liquidator, borrower types.AccountID, debtAsset, collateralAsset types.AssetID, repaid, seizedVouchers *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLiquidated,
		Attributes: map[string]string{
			"liquidator":      liquidator.String(),
			"borrower":        borrower.String(),
			"debtAsset":       debtAsset.String(),
			"collateralAsset": collateralAsset.String(),
			"repaid":          amountAttr(repaid),
			"seizedVouchers":  amountAttr(seizedVouchers),
		},
	}
}
