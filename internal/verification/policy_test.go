package verification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideReport(t *testing.T) {
	tests := []struct {
		name     string
		verdict  Verdict
		hasImage bool
		want     Outcome
	}{
		{
			name:     "confident match verifies",
			verdict:  Verdict{IsMatch: true, Confidence: 90, Reason: "pothole visible"},
			hasImage: true,
			want:     Outcome{Approved: true, Confidence: 90, Reason: "pothole visible"},
		},
		{
			name:     "exactly at threshold stays pending",
			verdict:  Verdict{IsMatch: true, Confidence: 85, Reason: "likely"},
			hasImage: true,
			want:     Outcome{Confidence: 85, Reason: "likely"},
		},
		{
			name:     "one above threshold verifies",
			verdict:  Verdict{IsMatch: true, Confidence: 86, Reason: "ok"},
			hasImage: true,
			want:     Outcome{Approved: true, Confidence: 86, Reason: "ok"},
		},
		{
			name:     "high confidence mismatch stays pending",
			verdict:  Verdict{IsMatch: false, Confidence: 99, Reason: "it is a cat"},
			hasImage: true,
			want:     Outcome{Confidence: 99, Reason: "it is a cat"},
		},
		{
			name:     "no image",
			verdict:  Verdict{IsMatch: true, Confidence: 100},
			hasImage: false,
			want:     Outcome{Reason: NoImageReason},
		},
		{
			name:     "classifier failure records error reason",
			verdict:  Failure(errors.New("timeout")),
			hasImage: true,
			want:     Outcome{Reason: "AI Error: timeout"},
		},
		{
			name:     "empty reason defaults",
			verdict:  Verdict{IsMatch: false, Confidence: 10},
			hasImage: true,
			want:     Outcome{Confidence: 10, Reason: DefaultReason},
		},
		{
			name:     "out of range confidence is clamped",
			verdict:  Verdict{IsMatch: true, Confidence: 140, Reason: "sure"},
			hasImage: true,
			want:     Outcome{Approved: true, Confidence: 100, Reason: "sure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideReport(tt.verdict, tt.hasImage))
		})
	}
}

func TestDecideMission(t *testing.T) {
	tests := []struct {
		confidence int
		match      bool
		approved   bool
	}{
		{confidence: 75, match: true, approved: false},
		{confidence: 76, match: true, approved: true},
		{confidence: 80, match: true, approved: true},
		{confidence: 80, match: false, approved: false},
		{confidence: 0, match: true, approved: false},
	}

	for _, tt := range tests {
		out := DecideMission(Verdict{IsMatch: tt.match, Confidence: tt.confidence, Reason: "r"}, true)
		assert.Equal(t, tt.approved, out.Approved, "confidence=%d match=%v", tt.confidence, tt.match)
		assert.Equal(t, tt.confidence, out.Confidence)
	}
}

func TestMissionThresholdIsLooserThanReport(t *testing.T) {
	v := Verdict{IsMatch: true, Confidence: 80, Reason: "bins emptied"}
	assert.True(t, DecideMission(v, true).Approved)
	assert.False(t, DecideReport(v, true).Approved)
}
