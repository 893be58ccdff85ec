// Visualization sinks for tracker output
package display

import (
	"errors"

	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/core"
)

// Sink is a closable core.Sink
type Sink interface {
	core.Sink
	Close() error
}

// Discard drops every image
type Discard struct{}

func (Discard) Show(string, gocv.Mat) {}

func (Discard) Close() error { return nil }

// Multi fans every image out to all sinks in order
type Multi []Sink

func (m Multi) Show(name string, img gocv.Mat) {
	for _, s := range m {
		s.Show(name, img)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// thresholdMulti is a Multi whose threshold comes from one of its sinks
type thresholdMulti struct {
	Multi
	src core.ThresholdSource
}

func (t thresholdMulti) Threshold() int {
	return t.src.Threshold()
}

// Combine returns one sink for all of sinks. When one of them exposes an
// interactive threshold, the result exposes it too.
func Combine(sinks ...Sink) Sink {
	switch len(sinks) {
	case 0:
		return Discard{}
	case 1:
		return sinks[0]
	}

	m := Multi(sinks)
	for _, s := range sinks {
		if src, ok := s.(core.ThresholdSource); ok {
			return thresholdMulti{Multi: m, src: src}
		}
	}
	return m
}
