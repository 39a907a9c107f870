package verification

// Auto-approval needs a confidence strictly above these values.
const (
	ReportApprovalThreshold  = 85
	MissionApprovalThreshold = 75
)

const NoImageReason = "No image uploaded"

// Outcome is what a state machine records after a verification attempt.
type Outcome struct {
	Approved   bool
	Confidence int
	Reason     string
}

// DecideReport applies the stricter public-record threshold.
func DecideReport(v Verdict, hasImage bool) Outcome {
	return decide(v, hasImage, ReportApprovalThreshold)
}

// DecideMission applies the mission-proof threshold. Rejections are retryable.
func DecideMission(v Verdict, hasImage bool) Outcome {
	return decide(v, hasImage, MissionApprovalThreshold)
}

func decide(v Verdict, hasImage bool, threshold int) Outcome {
	if !hasImage {
		return Outcome{Reason: NoImageReason}
	}
	if v.Failed() {
		return Outcome{Reason: v.Reason}
	}

	reason := v.Reason
	if reason == "" {
		reason = DefaultReason
	}
	return Outcome{
		Approved:   v.IsMatch && v.Confidence > threshold,
		Confidence: clampConfidence(v.Confidence),
		Reason:     reason,
	}
}

func clampConfidence(c int) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
