// Package model defines the data models shared by the Stockle bot packages.
package model

import "strings"

// UnknownSector is used when the data provider has no sector for a listing.
const UnknownSector = "unknown"

// TickerInfo describes a resolved exchange listing.
// It is produced by a ticker gateway and never mutated afterwards.
type TickerInfo struct {
	Symbol    string // Uppercase exchange ticker, e.g. "AAPL"
	Name      string // Display name, e.g. "Apple Inc."
	Sector    string // Sector name or UnknownSector
	MarketCap int64  // Non-negative, currency-agnostic units
	Exchange  string // Short exchange name, e.g. "NASDAQ"
}

// NormalizeSymbol trims surrounding whitespace and uppercases a raw ticker.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// SameSector reports whether two listings share a sector.
func (t TickerInfo) SameSector(other TickerInfo) bool {
	return t.Sector == other.Sector
}
