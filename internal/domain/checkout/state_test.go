package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "persisting_items", PersistingItems.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestParseStockPolicy(t *testing.T) {
	assert.Equal(t, RejectNegative, ParseStockPolicy("reject_negative"))
	assert.Equal(t, AllowNegative, ParseStockPolicy("allow_negative"))
	assert.Equal(t, AllowNegative, ParseStockPolicy(""))
}
