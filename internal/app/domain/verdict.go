package domain

// VerdictSource names the stage that produced a phishing verdict.
type VerdictSource string

const (
	// SourceGoPlus is the GoPlus risk-scan API.
	SourceGoPlus VerdictSource = "goplus"
	// SourceGoogle is Google Safe Browsing.
	SourceGoogle VerdictSource = "google"
	// SourceOpenPhish is the OpenPhish community feed.
	SourceOpenPhish VerdictSource = "openphish"
	// SourceURLhaus is the abuse.ch URLhaus feed.
	SourceURLhaus VerdictSource = "urlhaus"
	// SourcePhishTank is the PhishTank online-valid feed.
	SourcePhishTank VerdictSource = "phishtank"
	// SourceNone marks a verdict where no stage reported a positive signal.
	SourceNone VerdictSource = "none"
)

// Verdict is the outcome of one phishing resolution.
type Verdict struct {
	Flagged bool
	Source  VerdictSource
	Raw     any
}

// CleanVerdict returns the verdict used when no stage flagged the URL.
func CleanVerdict() Verdict {
	return Verdict{Flagged: false, Source: SourceNone}
}

// PhishingSignal is one gateway's opinion about a URL. Source is the service
// that actually answered, which differs from the called gateway when it
// delegated.
type PhishingSignal struct {
	Flagged bool
	Source  VerdictSource
	Raw     any
}
