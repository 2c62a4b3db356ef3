package broker

import "quantdesk/internal/domain/models"

// catalog is the static table of supported brokers. The family tag
// selects the connector implementation; there is no class-name dispatch.
var catalog = map[string]models.BrokerInfo{
	"XM": {
		Name:            "XM",
		Type:            "forex",
		Family:          models.FamilyMT5,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD", "USDCHF", "NZDUSD", "EURJPY", "GBPJPY", "AUDJPY"},
		Features:        []string{"forex", "commodities", "indices", "crypto_cfd"},
		MinDeposit:      5,
		MaxLeverage:     888,
	},
	"IC Markets": {
		Name:            "IC Markets",
		Type:            "forex",
		Family:          models.FamilyMT5,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD"},
		Features:        []string{"forex", "commodities", "indices", "stocks"},
		MinDeposit:      200,
		MaxLeverage:     500,
	},
	"RoboForex": {
		Name:            "RoboForex",
		Type:            "forex",
		Family:          models.FamilyMT5,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD"},
		Features:        []string{"forex", "stocks", "commodities", "crypto_cfd"},
		MinDeposit:      10,
		MaxLeverage:     2000,
	},
	"FBS": {
		Name:            "FBS",
		Type:            "forex",
		Family:          models.FamilyMT5,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD"},
		Features:        []string{"forex", "commodities", "indices"},
		MinDeposit:      5,
		MaxLeverage:     3000,
	},
	"Admiral Markets": {
		Name:            "Admiral Markets",
		Type:            "forex",
		Family:          models.FamilyMT5,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY"},
		Features:        []string{"forex", "cfd", "stocks"},
		MinDeposit:      100,
		MaxLeverage:     30,
	},
	"Binance": {
		Name:            "Binance",
		Type:            "crypto",
		Family:          models.FamilyExchange,
		SupportedAssets: []string{"BTC/USDT", "ETH/USDT", "BNB/USDT", "ADA/USDT", "DOT/USDT"},
		Features:        []string{"spot", "futures", "margin", "savings"},
		MinDeposit:      10,
		MaxLeverage:     125,
	},
	"Kraken": {
		Name:            "Kraken",
		Type:            "crypto",
		Family:          models.FamilyExchange,
		SupportedAssets: []string{"BTC/USD", "ETH/USD", "XRP/USD", "ADA/USD"},
		Features:        []string{"spot", "futures", "margin", "staking"},
		MinDeposit:      1,
		MaxLeverage:     5,
	},
	"Bybit": {
		Name:            "Bybit",
		Type:            "crypto",
		Family:          models.FamilyExchange,
		SupportedAssets: []string{"BTC/USDT", "ETH/USDT", "BIT/USDT"},
		Features:        []string{"spot", "derivatives", "copy_trading"},
		MinDeposit:      10,
		MaxLeverage:     100,
	},
	"KuCoin": {
		Name:            "KuCoin",
		Type:            "crypto",
		Family:          models.FamilyExchange,
		SupportedAssets: []string{"BTC/USDT", "ETH/USDT", "KCS/USDT"},
		Features:        []string{"spot", "futures", "margin", "pool"},
		MinDeposit:      10,
		MaxLeverage:     100,
	},
	"OKX": {
		Name:            "OKX",
		Type:            "crypto",
		Family:          models.FamilyExchange,
		SupportedAssets: []string{"BTC/USDT", "ETH/USDT", "OKB/USDT"},
		Features:        []string{"spot", "futures", "perpetual", "options"},
		MinDeposit:      10,
		MaxLeverage:     125,
	},
	"XTB": {
		Name:            "XTB",
		Type:            "forex",
		Family:          models.FamilyStub,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY", "SPX500", "GER40"},
		Features:        []string{"forex", "cfd", "stocks", "commodities"},
		MinDeposit:      250,
		MaxLeverage:     30,
	},
	"IG Group": {
		Name:            "IG Group",
		Type:            "cfd",
		Family:          models.FamilyStub,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "SPX500", "FTSE100"},
		Features:        []string{"forex", "cfd", "options", "barriers"},
		MinDeposit:      250,
		MaxLeverage:     30,
	},
	"Plus500": {
		Name:            "Plus500",
		Type:            "cfd",
		Family:          models.FamilyStub,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "SPX500", "TSLA", "AAPL"},
		Features:        []string{"cfd", "crypto_cfd", "forex"},
		MinDeposit:      100,
		MaxLeverage:     30,
	},
	"SabioTrade": {
		Name:            "SabioTrade",
		Type:            "forex",
		Family:          models.FamilyStub,
		SupportedAssets: []string{"EURUSD", "GBPUSD", "USDJPY"},
		Features:        []string{"forex", "social_trading"},
		MinDeposit:      250,
		MaxLeverage:     400,
	},
}

// Lookup returns the catalog entry for a broker name.
func Lookup(name string) (models.BrokerInfo, bool) {
	info, ok := catalog[name]
	return info, ok
}

// SupportedBrokers lists all catalog entries.
func SupportedBrokers() []models.BrokerInfo {
	out := make([]models.BrokerInfo, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	return out
}
