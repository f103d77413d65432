package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input string
		want  Command
	}{
		{input: "start alerts", want: Command{Verb: VerbStartAlerts}},
		{input: "  STOP   Alerts ", want: Command{Verb: VerbStopAlerts}},
		{input: "Enable alerts", want: Command{Verb: VerbEnableAlerts}},
		{input: "disable ALERTS", want: Command{Verb: VerbDisableAlerts}},
		{input: "pump 20", want: Command{Verb: VerbPump, Number: 20}},
		{input: "PUMP 12.5%", want: Command{Verb: VerbPump, Number: 12.5}},
		{input: "dump -10", want: Command{Verb: VerbDump, Number: -10}},
		{input: "volume 4", want: Command{Verb: VerbVolume, Number: 4}},
		{input: "minvol 250000", want: Command{Verb: VerbMinVolume, Number: 250000}},
		{input: "cooldown 0", want: Command{Verb: VerbCooldown}},
		{input: "interval 30", want: Command{Verb: VerbInterval, Number: 30}},
		{input: "add DOGE", want: Command{Verb: VerbAdd, Symbol: "doge"}},
		{input: "remove btcusdt", want: Command{Verb: VerbRemove, Symbol: "btcusdt"}},
		{input: "/pump@sentinel_bot 18", want: Command{Verb: VerbPump, Number: 18}},
		{input: "alert stats", want: Command{Verb: VerbStats}},
		{input: "stats", want: Command{Verb: VerbStats}},
		{input: "/help", want: Command{Verb: VerbHelp}},
		{input: "settings", want: Command{Verb: VerbSettings}},
		{input: "symbols", want: Command{Verb: VerbSymbols}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("moon 5")
	assert.ErrorIs(t, err, ErrUnknown)

	for _, input := range []string{"pump", "pump abc", "pump 1 2", "volume NaN", "minvol inf", "add", "settings now"} {
		_, err = Parse(input)
		var argErr *ArgError
		assert.True(t, errors.As(err, &argErr), input)
	}
}
