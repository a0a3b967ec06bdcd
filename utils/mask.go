package utils

const maskedTail = 4

// MaskBidder hides all but the last few characters of a bidder ID, e.g. "Bidder ***1234".
// At most half of the ID is ever shown, so short IDs reveal less or nothing.
func MaskBidder(bidderID string) string {
	runes := []rune(bidderID)
	shown := min(maskedTail, len(runes)/2)
	return "Bidder ***" + string(runes[len(runes)-shown:])
}
