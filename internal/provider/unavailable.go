package provider

import "context"

// Unavailable stands in for a provider that could not be constructed at
// startup. Every stream fails with the construction error.
type Unavailable struct {
	Err error
}

func (u Unavailable) Stream(_ context.Context, _ Request) (Stream, error) {
	return nil, u.Err
}
