package types

// AssetID identifies an underlying fungible asset tracked by the protocol.
type AssetID string

// AccountID identifies a participant account. Accounts are opaque here; key
// management and signature checks belong to the outer dispatch surface.
type AccountID string

func (a AssetID) String() string   { return string(a) }
func (a AccountID) String() string { return string(a) }
