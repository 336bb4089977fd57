// internal/driver/windfreak/driver.go
package windfreak

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mw-source-service/internal/config"
	"mw-source-service/internal/transport"
	"mw-source-service/internal/utils"
	"mw-source-service/pkg/microwave"
)

// synthHDLimits is the static capability descriptor for the SynthHD.
var synthHDLimits = microwave.Limits{
	SupportedModes: []microwave.Mode{microwave.ModeCW, microwave.ModeList, microwave.ModeSweep},

	MinFrequency: 54e6,
	MaxFrequency: 13.6e9,

	MinPower: -50,
	MaxPower: 20,

	ListMinStep:    0.1,
	ListMaxStep:    13.5e9,
	ListMaxEntries: 100,

	SweepMinStep:    0.1,
	SweepMaxStep:    13.5e9,
	SweepMaxEntries: 10001,
}

// Driver implements microwave.Source for the Windfreak SynthHD signal
// generator. It owns one exclusive transport handle; a single mutex
// serializes every operation over it, and the output mode is tracked
// locally while the running flag is always queried from the device.
type Driver struct {
	config *config.DeviceConfig
	tr     transport.Transport
	logger *utils.DeviceLogger

	mu    sync.Mutex
	mode  microwave.Mode
	model string

	connected    bool
	pollInterval time.Duration
	pollAttempts int
}

// New creates a SynthHD driver with a transport built from the configured
// address.
func New(cfg *config.DeviceConfig, logger *zap.Logger) (microwave.Source, error) {
	tr, err := transport.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return newDriver(cfg, tr, logger), nil
}

// newDriver wires a driver onto an existing transport. Tests inject a
// simulated transport here.
func newDriver(cfg *config.DeviceConfig, tr transport.Transport, logger *zap.Logger) *Driver {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 25
	}

	return &Driver{
		config:       cfg,
		tr:           tr,
		logger:       utils.NewDeviceLogger(logger, cfg.Model, cfg.Address),
		mode:         microwave.ModeCW,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// Connect opens the transport and confirms liveness with an identification
// query. Open failure propagates immediately; there is no retry.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	if err := d.tr.Open(ctx); err != nil {
		d.logger.LogConnection("open", err)
		return fmt.Errorf("%w: %v", microwave.ErrTransportUnavailable, err)
	}

	model, err := d.tr.Query(ctx, SYNTH_COMMANDS.IDENTIFY)
	if err != nil {
		d.tr.Close()
		d.logger.LogConnection("identify", err)
		return fmt.Errorf("%w: identification query failed: %v", microwave.ErrTransportUnavailable, err)
	}

	d.model = strings.TrimSpace(model)
	d.connected = true
	d.logger.LogConnection("connect", nil)
	d.logger.Info("Microwave source connected",
		zap.String("model", d.model),
	)
	return nil
}

// Disconnect releases the transport unconditionally.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.tr.Close()
	d.connected = false
	d.logger.LogConnection("disconnect", err)
	return err
}

// IsConnected returns connection status
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected && d.tr.IsOpen()
}

// Limits returns the static capability descriptor for this model.
func (d *Driver) Limits() microwave.Limits {
	limits := synthHDLimits
	limits.SupportedModes = append([]microwave.Mode(nil), synthHDLimits.SupportedModes...)
	return limits
}

// On switches on the preconfigured output.
func (d *Driver) On(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(ctx, SYNTH_COMMANDS.OUTPUT_ON)
}

// Off switches off any output.
func (d *Driver) Off(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offLocked(ctx)
}

// Status reports the current mode and running flag. Running always comes
// from the instrument; the mode is the last one this driver configured.
func (d *Driver) Status(ctx context.Context) (microwave.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked(ctx)
}

// Frequency returns the CW frequency currently set at the device, in Hz.
func (d *Driver) Frequency(ctx context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frequencyLocked(ctx)
}

// SetFrequency sets the CW output frequency in Hz.
func (d *Driver) SetFrequency(ctx context.Context, hz float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setFrequencyLocked(ctx, hz)
}

// Power returns the output power currently set at the device, in dBm.
func (d *Driver) Power(ctx context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.powerLocked(ctx)
}

// SetPower sets the output power in dBm.
func (d *Driver) SetPower(ctx context.Context, dbm float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setPowerLocked(ctx, dbm)
}

// CWOn switches on CW output. Returns only after the device reports
// running, or fails with a device timeout once the poll budget is spent.
func (d *Driver) CWOn(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableLocked(ctx, microwave.ModeCW, false)
}

// SetCW configures CW mode: stop if running, switch mode, write the
// provided values, then read back ground truth from the device.
func (d *Driver) SetCW(ctx context.Context, frequency, power *float64) (microwave.CWSettings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frequency != nil {
		if err := d.checkFrequency(*frequency); err != nil {
			return microwave.CWSettings{}, err
		}
	}
	if power != nil {
		if err := d.checkPower(*power); err != nil {
			return microwave.CWSettings{}, err
		}
	}

	if err := d.stopIfRunningLocked(ctx); err != nil {
		return microwave.CWSettings{}, err
	}
	d.mode = microwave.ModeCW

	if frequency != nil {
		if err := d.write(ctx, fmt.Sprintf(SYNTH_COMMANDS.FREQ_SET, *frequency/1e6)); err != nil {
			return microwave.CWSettings{}, err
		}
	}
	if power != nil {
		if err := d.write(ctx, fmt.Sprintf(SYNTH_COMMANDS.POWER_SET, *power)); err != nil {
			return microwave.CWSettings{}, err
		}
	}

	actualFreq, err := d.frequencyLocked(ctx)
	if err != nil {
		return microwave.CWSettings{}, err
	}
	actualPower, err := d.powerLocked(ctx)
	if err != nil {
		return microwave.CWSettings{}, err
	}

	return microwave.CWSettings{
		Frequency: actualFreq,
		Power:     actualPower,
		Mode:      d.mode,
	}, nil
}

// SetList configures list mode from an ascending frequency table (Hz) at a
// constant power (dBm). Only the endpoints and the entry count travel to
// the device; the table itself must be evenly enumerable.
func (d *Driver) SetList(ctx context.Context, frequencies []float64, power float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(frequencies) == 0 {
		return fmt.Errorf("%w: frequency list is empty", microwave.ErrInvalidArgument)
	}
	if len(frequencies) > synthHDLimits.ListMaxEntries {
		return fmt.Errorf("%w: %d list entries exceed maximum of %d",
			microwave.ErrOutOfRange, len(frequencies), synthHDLimits.ListMaxEntries)
	}
	if !sort.Float64sAreSorted(frequencies) {
		return fmt.Errorf("%w: frequency list must be sorted ascending", microwave.ErrInvalidArgument)
	}
	for _, f := range frequencies {
		if err := d.checkFrequency(f); err != nil {
			return err
		}
	}
	if err := d.checkPower(power); err != nil {
		return err
	}

	if err := d.stopIfRunningLocked(ctx); err != nil {
		return err
	}

	commands := []string{
		SYNTH_COMMANDS.SWEEP_CONT_OFF,
		fmt.Sprintf(SYNTH_COMMANDS.LOWER_FREQ_SET, frequencies[0]/1e6),
		fmt.Sprintf(SYNTH_COMMANDS.UPPER_FREQ_SET, frequencies[len(frequencies)-1]/1e6),
		fmt.Sprintf(SYNTH_COMMANDS.STEP_COUNT_SET, len(frequencies)),
		fmt.Sprintf(SYNTH_COMMANDS.DWELL_SET, listDwellMillis),
		fmt.Sprintf(SYNTH_COMMANDS.POWER_LOW_SET, power),
		fmt.Sprintf(SYNTH_COMMANDS.POWER_HIGH_SET, power),
		SYNTH_COMMANDS.TRIG_INTERNAL_ARM,
		SYNTH_COMMANDS.RUN_START,
	}
	if err := d.writeAll(ctx, commands); err != nil {
		return err
	}

	d.mode = microwave.ModeList
	d.logger.Info("List mode configured",
		zap.Int("entries", len(frequencies)),
		zap.Float64("power_dbm", power),
	)
	return nil
}

// ListOn enables output in list mode, iterating from the current position.
func (d *Driver) ListOn(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableLocked(ctx, microwave.ModeList, true)
}

// ResetListPos rewinds the list position to the first entry without
// stopping output.
func (d *Driver) ResetListPos(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(ctx, SYNTH_COMMANDS.RUN_REWIND)
}

// SetSweep configures a linear frequency sweep from start to stop (Hz) by
// a fixed step (Hz) at constant power (dBm).
func (d *Driver) SetSweep(ctx context.Context, start, stop, step, power float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if step <= 0 {
		return fmt.Errorf("%w: sweep step must be positive", microwave.ErrInvalidArgument)
	}
	if start >= stop {
		return fmt.Errorf("%w: sweep start must be below stop", microwave.ErrInvalidArgument)
	}
	if err := d.checkFrequency(start); err != nil {
		return err
	}
	if err := d.checkFrequency(stop); err != nil {
		return err
	}
	if step < synthHDLimits.SweepMinStep || step > synthHDLimits.SweepMaxStep {
		return fmt.Errorf("%w: sweep step %.1f Hz outside [%.1f, %.1f]",
			microwave.ErrOutOfRange, step, synthHDLimits.SweepMinStep, synthHDLimits.SweepMaxStep)
	}
	if entries := int((stop-start)/step) + 1; entries > synthHDLimits.SweepMaxEntries {
		return fmt.Errorf("%w: sweep of %d entries exceeds maximum of %d",
			microwave.ErrOutOfRange, entries, synthHDLimits.SweepMaxEntries)
	}
	if err := d.checkPower(power); err != nil {
		return err
	}

	if err := d.stopIfRunningLocked(ctx); err != nil {
		return err
	}

	// The lower bound sits one step below start so the first trigger
	// lands exactly on the start frequency.
	commands := []string{
		SYNTH_COMMANDS.SWEEP_CONT_OFF,
		fmt.Sprintf(SYNTH_COMMANDS.LOWER_FREQ_SET, (start-step)/1e6),
		fmt.Sprintf(SYNTH_COMMANDS.UPPER_FREQ_SET, stop/1e6),
		fmt.Sprintf(SYNTH_COMMANDS.STEP_SIZE_SET, step/1e6),
		fmt.Sprintf(SYNTH_COMMANDS.POWER_LOW_SET, power),
		fmt.Sprintf(SYNTH_COMMANDS.POWER_HIGH_SET, power),
		SYNTH_COMMANDS.TRIG_INTERNAL_MODE,
	}
	if err := d.writeAll(ctx, commands); err != nil {
		return err
	}

	d.mode = microwave.ModeSweep
	d.logger.Info("Sweep mode configured",
		zap.Float64("start_hz", start),
		zap.Float64("stop_hz", stop),
		zap.Float64("step_hz", step),
		zap.Float64("power_dbm", power),
	)
	return nil
}

// SweepOn enables output in sweep mode, iterating from the current
// position.
func (d *Driver) SweepOn(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableLocked(ctx, microwave.ModeSweep, true)
}

// ResetSweepPos rewinds the sweep position to the start frequency without
// stopping output.
func (d *Driver) ResetSweepPos(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(ctx, SYNTH_COMMANDS.RUN_START)
}

// ResetSweep cycles the run flag to force a sweep restart from the first
// position.
func (d *Driver) ResetSweep(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(ctx, SYNTH_COMMANDS.RUN_START); err != nil {
		return err
	}
	return d.write(ctx, SYNTH_COMMANDS.RUN_REWIND)
}

// SetExtTrigger selects the external trigger edge. Each edge has its own
// command encoding; unknown edges fail without touching the transport.
func (d *Driver) SetExtTrigger(ctx context.Context, edge microwave.TriggerEdge) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd, ok := triggerEdgeCommands[edge]
	if !ok {
		return fmt.Errorf("%w: unsupported trigger edge %q", microwave.ErrInvalidArgument, edge)
	}
	return d.write(ctx, cmd)
}

// Internal helpers. All assume d.mu is held.

func (d *Driver) write(ctx context.Context, cmd string) error {
	if err := d.tr.Write(ctx, []byte(cmd)); err != nil {
		return fmt.Errorf("%w: write %q: %v", microwave.ErrTransportUnavailable, cmd, err)
	}
	return nil
}

func (d *Driver) writeAll(ctx context.Context, commands []string) error {
	for _, cmd := range commands {
		if err := d.write(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) query(ctx context.Context, cmd string) (string, error) {
	reply, err := d.tr.Query(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: query %q: %v", microwave.ErrTransportUnavailable, cmd, err)
	}
	return strings.TrimSpace(reply), nil
}

func (d *Driver) queryFloat(ctx context.Context, cmd string) (float64, error) {
	reply, err := d.query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reply %q to %q: %w", reply, cmd, err)
	}
	return value, nil
}

func (d *Driver) statusLocked(ctx context.Context) (microwave.Status, error) {
	reply, err := d.query(ctx, SYNTH_COMMANDS.RUN_QUERY)
	if err != nil {
		return microwave.Status{}, err
	}
	flag, err := strconv.Atoi(reply)
	if err != nil {
		return microwave.Status{}, fmt.Errorf("malformed run flag %q: %w", reply, err)
	}
	return microwave.Status{Mode: d.mode, Running: flag != 0}, nil
}

func (d *Driver) frequencyLocked(ctx context.Context) (float64, error) {
	mhz, err := d.queryFloat(ctx, SYNTH_COMMANDS.FREQ_QUERY)
	if err != nil {
		return 0, err
	}
	return mhz * 1e6, nil
}

func (d *Driver) setFrequencyLocked(ctx context.Context, hz float64) error {
	if err := d.checkFrequency(hz); err != nil {
		return err
	}
	return d.write(ctx, fmt.Sprintf(SYNTH_COMMANDS.FREQ_SET, hz/1e6))
}

func (d *Driver) powerLocked(ctx context.Context) (float64, error) {
	return d.queryFloat(ctx, SYNTH_COMMANDS.POWER_QUERY)
}

func (d *Driver) setPowerLocked(ctx context.Context, dbm float64) error {
	if err := d.checkPower(dbm); err != nil {
		return err
	}
	return d.write(ctx, fmt.Sprintf(SYNTH_COMMANDS.POWER_SET, dbm))
}

func (d *Driver) offLocked(ctx context.Context) error {
	return d.write(ctx, SYNTH_COMMANDS.OUTPUT_OFF)
}

func (d *Driver) stopIfRunningLocked(ctx context.Context) error {
	st, err := d.statusLocked(ctx)
	if err != nil {
		return err
	}
	if st.Running {
		return d.offLocked(ctx)
	}
	return nil
}

// enableLocked is the shared mode-enable template: no-op when already
// running in the target mode, stop first when running in another mode,
// enable, then poll until the device confirms it is running.
func (d *Driver) enableLocked(ctx context.Context, mode microwave.Mode, startIteration bool) error {
	st, err := d.statusLocked(ctx)
	if err != nil {
		return err
	}
	if st.Running && d.mode == mode {
		return nil
	}
	if st.Running {
		if err := d.offLocked(ctx); err != nil {
			return err
		}
	}

	if err := d.write(ctx, SYNTH_COMMANDS.OUTPUT_ON); err != nil {
		return err
	}
	if startIteration {
		if err := d.write(ctx, SYNTH_COMMANDS.RUN_START); err != nil {
			return err
		}
	}
	d.mode = mode

	return d.waitRunningLocked(ctx)
}

// waitRunningLocked polls the run flag until the device confirms it is
// running. The attempt budget keeps a dead device from hanging the caller
// forever.
func (d *Driver) waitRunningLocked(ctx context.Context) error {
	for attempt := 0; attempt < d.pollAttempts; attempt++ {
		st, err := d.statusLocked(ctx)
		if err != nil {
			return err
		}
		if st.Running {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}

	return fmt.Errorf("%w: device did not report running after %d polls",
		microwave.ErrDeviceTimeout, d.pollAttempts)
}

func (d *Driver) checkFrequency(hz float64) error {
	if !synthHDLimits.FrequencyInRange(hz) {
		return fmt.Errorf("%w: frequency %.0f Hz outside [%.0f, %.0f]",
			microwave.ErrOutOfRange, hz, synthHDLimits.MinFrequency, synthHDLimits.MaxFrequency)
	}
	return nil
}

func (d *Driver) checkPower(dbm float64) error {
	if !synthHDLimits.PowerInRange(dbm) {
		return fmt.Errorf("%w: power %.1f dBm outside [%.1f, %.1f]",
			microwave.ErrOutOfRange, dbm, synthHDLimits.MinPower, synthHDLimits.MaxPower)
	}
	return nil
}
