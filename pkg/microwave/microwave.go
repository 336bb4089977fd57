// pkg/microwave/microwave.go
package microwave

import "context"

// Mode identifies the output mode of a microwave source.
type Mode string

const (
	ModeCW    Mode = "cw"
	ModeList  Mode = "list"
	ModeSweep Mode = "sweep"
)

// TriggerEdge selects which transition of an external trigger signal
// advances the list/sweep position.
type TriggerEdge string

const (
	TriggerRising  TriggerEdge = "rising"
	TriggerFalling TriggerEdge = "falling"
)

// Limits describes the static capabilities of a source model. Frequencies
// are in Hz, powers in dBm. A Limits value is constant for a given model
// and is always passed by value.
type Limits struct {
	SupportedModes []Mode `json:"supported_modes"`

	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`

	MinPower float64 `json:"min_power"`
	MaxPower float64 `json:"max_power"`

	ListMinStep    float64 `json:"list_min_step"`
	ListMaxStep    float64 `json:"list_max_step"`
	ListMaxEntries int     `json:"list_max_entries"`

	SweepMinStep    float64 `json:"sweep_min_step"`
	SweepMaxStep    float64 `json:"sweep_max_step"`
	SweepMaxEntries int     `json:"sweep_max_entries"`
}

// FrequencyInRange reports whether f (Hz) is within the supported band.
func (l Limits) FrequencyInRange(f float64) bool {
	return f >= l.MinFrequency && f <= l.MaxFrequency
}

// PowerInRange reports whether p (dBm) is within the supported output range.
func (l Limits) PowerInRange(p float64) bool {
	return p >= l.MinPower && p <= l.MaxPower
}

// Status is the observed state of the source. Running always comes from a
// status query to the instrument; Mode is the last mode the driver
// successfully configured.
type Status struct {
	Mode    Mode `json:"mode"`
	Running bool `json:"running"`
}

// CWSettings carries the ground-truth values read back from the device
// after a composite CW configuration.
type CWSettings struct {
	Frequency float64 `json:"frequency"`
	Power     float64 `json:"power"`
	Mode      Mode    `json:"mode"`
}

// Source is the hardware abstraction a measurement-control host consumes.
// Implementations own one exclusive transport handle and must serialize all
// operations over it; every call is a blocking round-trip to the instrument.
type Source interface {
	// Connection lifecycle
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	// Capabilities
	Limits() Limits

	// Output control
	On(ctx context.Context) error
	Off(ctx context.Context) error
	Status(ctx context.Context) (Status, error)

	// CW parameters
	Frequency(ctx context.Context) (float64, error)
	SetFrequency(ctx context.Context, hz float64) error
	Power(ctx context.Context) (float64, error)
	SetPower(ctx context.Context, dbm float64) error

	// Mode configuration and start
	CWOn(ctx context.Context) error
	SetCW(ctx context.Context, frequency, power *float64) (CWSettings, error)
	SetList(ctx context.Context, frequencies []float64, power float64) error
	ListOn(ctx context.Context) error
	ResetListPos(ctx context.Context) error
	SetSweep(ctx context.Context, start, stop, step, power float64) error
	SweepOn(ctx context.Context) error
	ResetSweepPos(ctx context.Context) error
	ResetSweep(ctx context.Context) error

	// External triggering
	SetExtTrigger(ctx context.Context, edge TriggerEdge) error
}
