package notifier

import (
	"context"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Notifier = (*Instrumented)(nil)

// Recorder counts notifier sends.
type Recorder interface {
	ObserveNotification(driver, result string)
}

// Instrumented reports the result of every send of next to a Recorder.
type Instrumented struct {
	next     model.Notifier
	driver   string
	recorder Recorder
}

func NewInstrumented(next model.Notifier, driver string, recorder Recorder) *Instrumented {
	return &Instrumented{
		next:     next,
		driver:   driver,
		recorder: recorder,
	}
}

func (i *Instrumented) Send(ctx context.Context, msg model.Message) error {
	err := i.next.Send(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.recorder.ObserveNotification(i.driver, result)
	return err
}
