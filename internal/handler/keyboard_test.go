package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"stockle-bot/internal/chart"
)

func TestDecodeChartCallback(t *testing.T) {
	tests := []struct {
		data   string
		tf     chart.Timeframe
		userID int64
		ok     bool
	}{
		{"chart_d_42", chart.Daily, 42, true},
		{"\fchart_w_12345", chart.Weekly, 12345, true},
		{"chart_m_7", chart.Monthly, 7, true},
		{"chart_y_7", "", 0, false},
		{"chart_d", "", 0, false},
		{"chart_d_abc", "", 0, false},
		{"shop_buy_1", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		tf, userID, ok := DecodeChartCallback(tt.data)
		assert.Equal(t, tt.ok, ok, "data %q", tt.data)
		assert.Equal(t, tt.tf, tf, "data %q", tt.data)
		assert.Equal(t, tt.userID, userID, "data %q", tt.data)
	}
}

func TestBuildTimeframePanel(t *testing.T) {
	markup := BuildTimeframePanel(chart.Weekly, 99)

	require.Len(t, markup.InlineKeyboard, 1)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, len(chart.Timeframes))

	for i, tf := range chart.Timeframes {
		assert.Equal(t, EncodeChartCallback(tf, 99), row[i].Data)
		if tf == chart.Weekly {
			assert.Equal(t, "• "+tf.Label(), row[i].Text)
		} else {
			assert.Equal(t, tf.Label(), row[i].Text)
		}
	}
}

// TestChartCallbackRoundTripProperty: decoding an encoded callback yields the
// same timeframe and owner, and the payload fits Telegram's 64-byte limit.
func TestChartCallbackRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tf := rapid.SampledFrom(chart.Timeframes).Draw(t, "tf")
		userID := rapid.Int64Range(1, 1<<52).Draw(t, "userID")

		data := EncodeChartCallback(tf, userID)
		if len(data) > 64 {
			t.Fatalf("callback data %q exceeds 64 bytes", data)
		}

		gotTF, gotUser, ok := DecodeChartCallback(data)
		if !ok || gotTF != tf || gotUser != userID {
			t.Fatalf("round trip of %q = (%q, %d, %v)", data, gotTF, gotUser, ok)
		}
	})
}
