package detector

// blacklist holds symbols excluded from detection: chronically illiquid or
// delisting contracts that produce phantom spreads.
var blacklist = map[string]bool{
	"STRAXUSDT": true,
	"IDEXUSDT":  true,
	"DGBUSDT":   true,
	"SNTUSDT":   true,
	"XCNUSDT":   true,
	"VOXELUSDT": true,
	"FISUSDT":   true,
	"TOKENUSDT": true,
	"OBOLUSDT":  true,
	"REIUSDT":   true,
	"SKATEUSDT": true,
	"MEGAUSDT":  true,
	"MILKUSDT":  true,
	"PONKEUSDT": true,
	"ORBSUSDT":  true,
}

// blacklisted reports whether the symbol is excluded from detection.
func blacklisted(symbol string) bool {
	return blacklist[symbol]
}
