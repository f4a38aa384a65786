package marketdata

// SectorMap maps tickers to sector names.
type SectorMap map[string]string

// Sector returns the sector for a ticker. Unmapped tickers fall back to the
// ticker itself as its own sector key.
func (m SectorMap) Sector(ticker string) string {
	if s, ok := m[ticker]; ok && s != "" {
		return s
	}
	return ticker
}
