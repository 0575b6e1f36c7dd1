package wake

import (
	"context"
	"fmt"

	"github.com/micro-ha/wol-server/internal/model"
)

// TransmissionError wraps an OS-level failure to emit a magic packet.
type TransmissionError struct {
	Target string
	Err    error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("send magic packet to %s: %v", e.Target, e.Err)
}

func (e *TransmissionError) Unwrap() error { return e.Err }

// Sender emits one magic packet to a resolved target.
type Sender interface {
	Send(ctx context.Context, target model.WakeTarget) error
}

// Service wakes by explicit MAC or by registered device id.
type Service interface {
	Wake(ctx context.Context, req model.WakeRequest) (model.WakeResult, error)
	WakeDevice(ctx context.Context, id string, req model.WakeRequest) (model.WakeResult, error)
}
