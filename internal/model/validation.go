package model

// ValidationOutcome is the verdict produced for one claim by the evidence scorer
type ValidationOutcome struct {
	IsValid             bool     `json:"isValid"`
	Sources             []string `json:"sources"`
	Confidence          float64  `json:"confidence"`
	SuggestedCorrection string   `json:"suggestedCorrection,omitempty"`
}

// Normalize makes Sources encode as an empty array instead of null
func (o ValidationOutcome) Normalize() ValidationOutcome {
	if o.Sources == nil {
		o.Sources = []string{}
	}
	return o
}

// FirstSource returns the first cited URL, or "" when there is none
func (o ValidationOutcome) FirstSource() string {
	if len(o.Sources) == 0 {
		return ""
	}
	return o.Sources[0]
}

// ValidatedClaim is the entry stored at a claim index once it has been validated
type ValidatedClaim struct {
	Claim string `json:"claim"`
	ValidationOutcome
}
