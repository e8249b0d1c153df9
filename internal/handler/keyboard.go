package handler

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"stockle-bot/internal/chart"
)

// ChartCallbackPrefix is the prefix of timeframe button callbacks.
const ChartCallbackPrefix = "chart_"

// EncodeChartCallback encodes a timeframe switch for the game owned by userID.
// Format: chart_<timeframe>_<userID>, e.g. chart_w_12345.
func EncodeChartCallback(tf chart.Timeframe, userID int64) string {
	return fmt.Sprintf("%s%s_%d", ChartCallbackPrefix, tf, userID)
}

// DecodeChartCallback parses callback data produced by EncodeChartCallback.
func DecodeChartCallback(data string) (chart.Timeframe, int64, bool) {
	data = strings.TrimPrefix(data, "\f")
	if !strings.HasPrefix(data, ChartCallbackPrefix) {
		return "", 0, false
	}

	parts := strings.SplitN(strings.TrimPrefix(data, ChartCallbackPrefix), "_", 2)
	if len(parts) != 2 {
		return "", 0, false
	}

	tf, err := chart.ParseTimeframe(parts[0])
	if err != nil {
		return "", 0, false
	}
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return tf, userID, true
}

// BuildTimeframePanel builds the chart timeframe keyboard.
// The active timeframe is marked with a dot.
//
// Layout: [Daily] [Weekly] [Monthly]
func BuildTimeframePanel(active chart.Timeframe, userID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	row := make([]tele.InlineButton, 0, len(chart.Timeframes))
	for _, tf := range chart.Timeframes {
		label := tf.Label()
		if tf == active {
			label = "• " + label
		}
		row = append(row, tele.InlineButton{
			Text: label,
			Data: EncodeChartCallback(tf, userID),
		})
	}

	markup.InlineKeyboard = [][]tele.InlineButton{row}
	return markup
}
