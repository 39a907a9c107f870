// Package verification turns an evidence image and a textual claim into a verdict, and a verdict into an outcome.
package verification

import (
	"context"
	"errors"
)

var (
	ErrNoImage        = errors.New("no image supplied")
	ErrNoEndpoints    = errors.New("no vision endpoint configured")
	ErrMalformedReply = errors.New("malformed classifier reply")
)

// DefaultReason is recorded when the model answers without explaining itself.
const DefaultReason = "AI could not decide."

// Verdict is the normalized classifier output. Err is set only when the classifier
// could not produce an answer, which keeps "service down" apart from a genuine "no match".
type Verdict struct {
	IsMatch    bool
	Confidence int
	Reason     string
	Err        error
}

func (v Verdict) Failed() bool { return v.Err != nil }

// Failure builds the conservative verdict returned for any classifier fault.
func Failure(err error) Verdict {
	return Verdict{Reason: "AI Error: " + err.Error(), Err: err}
}

// Classifier scores whether an image shows what the claim describes.
// Implementations never return an error; faults come back as Failure verdicts.
type Classifier interface {
	Classify(ctx context.Context, image []byte, claim string) Verdict
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, image []byte, claim string) Verdict

func (f ClassifierFunc) Classify(ctx context.Context, image []byte, claim string) Verdict {
	return f(ctx, image, claim)
}
