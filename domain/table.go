package domain

type Table string

const (
	TableGates     Table = "gates"
	TableTokens    Table = "tokens"
	TableCounters  Table = "counters"
	TableBalances  Table = "balances"
	TablePurchases Table = "purchases"

	TableListings           Table = "listings"
	TableListingsByRegistry Table = "listings_by_registry"
	TableListingsByOwner    Table = "listings_by_owner"
	TableListingsByCreator  Table = "listings_by_creator"
	TableListingsByGate     Table = "listings_by_gate"
)
