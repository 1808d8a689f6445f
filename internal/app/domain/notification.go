package domain

// Notification event types.
const (
	EventURLFlagged       = "io.trustguard.url.flagged"
	EventDonationVerified = "io.trustguard.donation.verified"
)
