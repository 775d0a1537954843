package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var stockRules = Rules{
	Required: []string{"symbol", "name", "price"},
	Positive: []string{"price"},
	Bounded:  []Bound{{Field: "changesPercentage", MaxAbs: 30}},
}

func validQuote() map[string]any {
	return map[string]any{
		"symbol":            "AAPL",
		"name":              "Apple Inc.",
		"price":             227.52,
		"changesPercentage": 1.3,
	}
}

func TestValidQuotePasses(t *testing.T) {
	assert.True(t, Valid(validQuote(), stockRules))
}

func TestMissingRequiredFieldFails(t *testing.T) {
	raw := validQuote()
	delete(raw, "name")
	assert.False(t, Valid(raw, stockRules))
}

func TestNilRequiredFieldFails(t *testing.T) {
	raw := validQuote()
	raw["name"] = nil
	assert.False(t, Valid(raw, stockRules))
}

func TestNegativePriceFails(t *testing.T) {
	raw := validQuote()
	raw["price"] = -5.0
	assert.False(t, Valid(raw, stockRules))
}

func TestZeroPriceFails(t *testing.T) {
	raw := validQuote()
	raw["price"] = 0.0
	assert.False(t, Valid(raw, stockRules))
}

func TestImplausibleChangeFails(t *testing.T) {
	raw := validQuote()
	raw["changesPercentage"] = -31.0
	assert.False(t, Valid(raw, stockRules))
}

func TestChangeJustInsideBoundPasses(t *testing.T) {
	raw := validQuote()
	raw["changesPercentage"] = 29.99
	assert.True(t, Valid(raw, stockRules))

	raw["changesPercentage"] = -29.99
	assert.True(t, Valid(raw, stockRules))
}

func TestOneViolationFailsRegardlessOfOtherFields(t *testing.T) {
	raw := validQuote()
	raw["changesPercentage"] = 45.0
	// every other field is pristine; the single bound violation still fails
	assert.False(t, Valid(raw, stockRules))
}

func TestCryptoLooserBound(t *testing.T) {
	cryptoRules := Rules{
		Required: []string{"id", "name", "current_price"},
		Positive: []string{"current_price"},
		Bounded:  []Bound{{Field: "price_change_percentage_24h", MaxAbs: 50}},
	}

	raw := map[string]any{
		"id":                          "bitcoin",
		"name":                        "Bitcoin",
		"current_price":               64250.0,
		"price_change_percentage_24h": 42.0,
	}
	assert.True(t, Valid(raw, cryptoRules), "42%% is plausible for crypto")

	raw["price_change_percentage_24h"] = 55.0
	assert.False(t, Valid(raw, cryptoRules))
}

func TestStringNumbersAreCoerced(t *testing.T) {
	raw := validQuote()
	raw["price"] = "227.52"
	assert.True(t, Valid(raw, stockRules))

	raw["price"] = "not-a-number"
	assert.False(t, Valid(raw, stockRules))
}

func TestNilResponseFails(t *testing.T) {
	assert.False(t, Valid(nil, stockRules))
}
