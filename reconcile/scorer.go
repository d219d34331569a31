package reconcile

// Score reduces verdicts to a ValidationResult. Informational verdicts are
// kept for display but never enter the denominator.
func Score(verdicts []FieldVerdict, th Thresholds) ValidationResult {
	th = th.withDefaults()
	res := ValidationResult{Verdicts: verdicts}
	for _, v := range verdicts {
		if !v.Match.Scored() {
			continue
		}
		res.ChecksConsidered++
		if v.Match == Matched {
			res.ChecksMatched++
		}
	}
	if res.ChecksConsidered > 0 {
		res.MatchPercentage = float64(res.ChecksMatched) / float64(res.ChecksConsidered) * 100
	}
	res.Disposition = Classify(res.MatchPercentage, th)
	return res
}

// Classify maps a match percentage to a recommendation. It is never applied
// to the document's approval state by this package.
func Classify(pct float64, th Thresholds) Disposition {
	th = th.withDefaults()
	switch {
	case pct >= th.AutoApprovePercent:
		return DispositionAutoApprove
	case pct > 0:
		return DispositionReview
	default:
		return DispositionNoData
	}
}
