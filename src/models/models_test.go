package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFixedPrecision(t *testing.T) {
	raw, err := json.Marshal(NewPrice(43250, 2))
	require.NoError(t, err)
	assert.Equal(t, `"43250.00"`, string(raw))

	raw, err = json.Marshal(NewPrice(0.0851234567, 6))
	require.NoError(t, err)
	assert.Equal(t, `"0.085123"`, string(raw))
}

func TestPriceDecode(t *testing.T) {
	var item MTickerItem
	require.NoError(t, json.Unmarshal([]byte(`{"symbol":"BTC","price":"43250.50"}`), &item))
	assert.Equal(t, "43250.50", item.Price.String())
	assert.Equal(t, int32(2), item.Price.Places)

	require.NoError(t, json.Unmarshal([]byte(`{"price":12}`), &item))
	assert.Equal(t, "12", item.Price.String())
}

func TestChartPointOmitsEmptyEvents(t *testing.T) {
	raw, err := json.Marshal(MChartDataPoint{Time: "t", HoldValue: 1, StrategyValue: 2})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "events")
}

func TestRemoteServerSlots(t *testing.T) {
	r := MRemoteServersConfig{Server1: "a", Server2: "b", Server3: "c"}
	assert.Equal(t, "a", r.Server(""))
	assert.Equal(t, "a", r.Server("server1"))
	assert.Equal(t, "b", r.Server("server2"))
	assert.Equal(t, "c", r.Server("server3"))
	assert.Equal(t, "", r.Server("server4"))
}
