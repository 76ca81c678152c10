package valuation

import (
	"regexp"
	"strings"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

var (
	b3Shape       = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}$`)
	lettersOnly   = regexp.MustCompile(`^[A-Z]{1,5}$`)
	fixedIncomeRe = regexp.MustCompile(`^(TESOURO|CDB|LCI|LCA|CRI|CRA|DEBENTURE|LTN|NTN)([^A-Z]|$)`)
)

var cryptoSymbols = set(
	"BTC", "ETH", "SOL", "ADA", "XRP", "DOT", "DOGE", "LTC", "BNB",
	"USDT", "USDC", "MATIC", "AVAX", "LINK", "ATOM", "TRX",
)

// B3 listed ETFs sharing the "11" suffix with real-estate funds.
var b3ETFs = set(
	"BOVA11", "BOVV11", "IVVB11", "SMAL11", "HASH11", "SPXI11", "XINA11",
	"GOLD11", "DIVO11", "FIND11", "ECOO11", "BBSD11", "NASD11", "QBTC11",
	"ETHE11", "WRLD11", "ACWI11", "EURP11", "BOVB11", "PIBB11",
)

var usETFs = set(
	"SPY", "VOO", "IVV", "QQQ", "VTI", "VT", "VEA", "VWO", "SCHD", "VNQ",
	"BND", "AGG", "TLT", "GLD", "IWM", "DIA", "XLK", "ARKK", "JEPI",
)

var usREITs = set(
	"O", "PLD", "AMT", "SPG", "EQIX", "PSA", "WPC", "STAG", "DLR", "AVB",
	"MAA", "NNN", "VICI", "CCI", "EQR", "ARE", "WELL", "ADC",
)

// Classify maps a ticker to its asset type using pattern rules only.
// Every input yields a type; unmatched tickers are domestic stocks.
func Classify(ticker string) model.AssetType {
	t := strings.ToUpper(strings.TrimSpace(ticker))

	switch {
	case cryptoSymbols[t]:
		return model.AssetCrypto
	case fixedIncomeRe.MatchString(t):
		return model.AssetFixedIncome
	case b3Shape.MatchString(t):
		if strings.HasSuffix(t, "11") {
			if b3ETFs[t] {
				return model.AssetETF
			}
			return model.AssetFII
		}
		return model.AssetStock
	case lettersOnly.MatchString(t):
		if usREITs[t] {
			return model.AssetREIT
		}
		if usETFs[t] {
			return model.AssetETF
		}
		return model.AssetStockInt
	}
	return model.AssetStock
}

// IsB3Ticker reports whether ticker has the shape of a B3 listing.
func IsB3Ticker(ticker string) bool {
	return b3Shape.MatchString(strings.ToUpper(ticker))
}

// IsCrypto reports whether ticker is a known crypto symbol.
func IsCrypto(ticker string) bool {
	return cryptoSymbols[strings.ToUpper(ticker)]
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
