// internal/driver/windfreak/command.go
package windfreak

import "mw-source-service/pkg/microwave"

// SYNTH_COMMANDS contains the one-letter ASCII mnemonics understood by the
// Windfreak SynthHD. Entries ending in a format verb are templates for
// fmt.Sprintf; the device takes frequencies in MHz and powers in dBm, and
// expects no command terminator.
var SYNTH_COMMANDS = struct {
	// Identification and output state
	IDENTIFY   string
	OUTPUT_ON  string
	OUTPUT_OFF string
	RUN_QUERY  string

	// CW parameters
	FREQ_QUERY  string
	FREQ_SET    string
	POWER_QUERY string
	POWER_SET   string

	// List/sweep table bounds
	SWEEP_CONT_OFF string
	LOWER_FREQ_SET string
	UPPER_FREQ_SET string
	STEP_COUNT_SET string
	STEP_SIZE_SET  string
	DWELL_SET      string
	POWER_LOW_SET  string
	POWER_HIGH_SET string

	// Triggering and run control
	TRIG_INTERNAL_ARM  string
	TRIG_INTERNAL_MODE string
	RUN_START          string
	RUN_REWIND         string
}{
	IDENTIFY:   "+",
	OUTPUT_ON:  "E1r1", // RF enable + reference on
	OUTPUT_OFF: "E0r0",
	RUN_QUERY:  "r?",

	FREQ_QUERY:  "f?",
	FREQ_SET:    "f%.7fMHz",
	POWER_QUERY: "W?",
	POWER_SET:   "W%.3f",

	SWEEP_CONT_OFF: "X0",
	LOWER_FREQ_SET: "l%.7f",
	UPPER_FREQ_SET: "u%.7f",
	STEP_COUNT_SET: "s%d",
	STEP_SIZE_SET:  "s%.7f",
	DWELL_SET:      "t%.2f",
	POWER_LOW_SET:  "[%.3f",
	POWER_HIGH_SET: "]%.3f",

	TRIG_INTERNAL_ARM:  "^1",
	TRIG_INTERNAL_MODE: "x2",
	RUN_START:          "g1",
	RUN_REWIND:         "g0",
}

// triggerEdgeCommands maps each supported external trigger edge to its
// command string. The mapping is explicit so the two edges can never
// silently collapse onto one encoding.
var triggerEdgeCommands = map[microwave.TriggerEdge]string{
	microwave.TriggerRising:  "w1",
	microwave.TriggerFalling: "w2",
}

// listDwellMillis is the fixed per-entry dwell written with every list
// table, matching the instrument's stock firmware configuration.
const listDwellMillis = 10.0
