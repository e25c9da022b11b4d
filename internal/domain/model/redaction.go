package model

// PIICategory names a class of personal data the redactor detects.
type PIICategory string

const (
	PIIEmail      PIICategory = "EMAIL"
	PIIPhone      PIICategory = "PHONE"
	PIISSN        PIICategory = "SSN"
	PIICreditCard PIICategory = "CREDIT_CARD"
	PIIIPAddress  PIICategory = "IP_ADDRESS"
)

type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskMedium   RiskLevel = "medium"
	RiskCritical RiskLevel = "critical"
)

// PIIMatch is one detected span, in byte offsets of the input text.
type PIIMatch struct {
	Category PIICategory
	Start    int
	End      int
}

// RedactionReport is ephemeral. Only RedactedText and Counts may leave the
// process (as logs or metrics).
type RedactionReport struct {
	RedactedText string
	Matches      []PIIMatch
	Counts       map[PIICategory]int
}

func (r RedactionReport) Detected() bool { return len(r.Matches) > 0 }

// Risk is critical when any SSN or card number was found.
func (r RedactionReport) Risk() RiskLevel {
	if r.Counts[PIISSN] > 0 || r.Counts[PIICreditCard] > 0 {
		return RiskCritical
	}
	if len(r.Matches) > 0 {
		return RiskMedium
	}
	return RiskNone
}
