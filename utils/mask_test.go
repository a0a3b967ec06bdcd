package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskBidder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "long_id", id: "user-00001234", want: "Bidder ***1234"},
		{name: "eight_chars", id: "bidder-x", want: "Bidder ***er-x"},
		{name: "five_chars", id: "alice", want: "Bidder ***ce"},
		{name: "four_chars", id: "abcd", want: "Bidder ***cd"},
		{name: "two_chars", id: "x9", want: "Bidder ***9"},
		{name: "one_char", id: "z", want: "Bidder ***"},
		{name: "empty", id: "", want: "Bidder ***"},
		{name: "multibyte", id: "bidder-ñandú", want: "Bidder ***andú"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MaskBidder(tc.id)
			require.Equal(t, tc.want, got)
			if tc.id != "" {
				require.NotContains(t, got, tc.id, "the full ID must never be shown")
			}
			shown := []rune(got[len("Bidder ***"):])
			require.LessOrEqual(t, len(shown)*2, len([]rune(tc.id)))
		})
	}
}
