package cost

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

var perMillion = decimal.NewFromInt(1_000_000)

// costScale matches the NUMERIC(14,6) cost columns.
const costScale = 6

// Price is a per-million-token price pair.
type Price struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

// ModelPrice is the price of one provider model.
type ModelPrice struct {
	Provider string
	Model    string
	Price    Price
}

// PriceTable looks up model prices. Unknown models use the default tier.
type PriceTable struct {
	prices   map[string]Price
	fallback Price
}

// NewPriceTable builds a table from a default tier and per-model overrides.
func NewPriceTable(fallback Price, models []ModelPrice) PriceTable {
	t := PriceTable{prices: make(map[string]Price, len(models)), fallback: fallback}
	for _, m := range models {
		t.prices[key(m.Provider, m.Model)] = m.Price
	}
	return t
}

// Lookup returns the price of provider/model and whether it was listed.
func (t PriceTable) Lookup(provider, model string) (Price, bool) {
	if p, ok := t.prices[key(provider, model)]; ok {
		return p, true
	}
	return t.fallback, false
}

// Price computes the cost of one call. Input and output are priced
// independently per million tokens.
func (t PriceTable) Price(provider, model string, inputTokens, outputTokens int) domain.Cost {
	p, _ := t.Lookup(provider, model)
	in := tokensCost(inputTokens, p.Input)
	out := tokensCost(outputTokens, p.Output)
	return domain.Cost{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in.Add(out),
	}
}

func tokensCost(tokens int, pricePerMillion decimal.Decimal) decimal.Decimal {
	if tokens <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(tokens)).Mul(pricePerMillion).Div(perMillion).Round(costScale)
}

func key(provider, model string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "/" + strings.ToLower(strings.TrimSpace(model))
}
