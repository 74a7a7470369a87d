// Package wlrrandr controls the frame's output through the wlr-randr tool: power, scale
// and the current mode's size
package wlrrandr

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

const OutputName = "HDMI-A-1"

type Output struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Serial       string       `json:"serial"`
	PhysicalSize PhysicalSize `json:"physical_size"`
	Enabled      bool         `json:"enabled"`
	Modes        []Mode       `json:"modes"`
	Position     Position     `json:"position"`
	Transform    string       `json:"transform"`
	Scale        float64      `json:"scale"`
	AdaptiveSync bool         `json:"adaptive_sync"`
}

type PhysicalSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Mode struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred"`
	Current   bool    `json:"current"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CurrentMode is the active mode, or the preferred one when none is marked active
func (o *Output) CurrentMode() (Mode, bool) {
	var preferred *Mode
	for i := range o.Modes {
		if o.Modes[i].Current {
			return o.Modes[i], true
		}
		if o.Modes[i].Preferred && preferred == nil {
			preferred = &o.Modes[i]
		}
	}
	if preferred != nil {
		return *preferred, true
	}
	return Mode{}, false
}

// Runner executes wlr-randr with args and returns its standard output
type Runner func(args ...string) ([]byte, error)

func execRunner(args ...string) ([]byte, error) {
	return exec.Command("wlr-randr", args...).Output()
}

// Display is one wlr-randr output
type Display struct {
	output string
	run    Runner
}

func NewDisplay(output string) *Display {
	return NewDisplayWithRunner(output, execRunner)
}

func NewDisplayWithRunner(output string, run Runner) *Display {
	if output == "" {
		output = OutputName
	}
	return &Display{output: output, run: run}
}

// Output inspects the current state of the output
func (d *Display) Output() (*Output, error) {
	out, err := d.run("--output", d.output, "--json")
	if err != nil {
		return nil, fmt.Errorf("failed to run wlr-randr: %w", err)
	}

	var results []Output
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wlr-randr output: %w", err)
	}

	for i := range results {
		if results[i].Name == d.output {
			return &results[i], nil
		}
	}
	return nil, fmt.Errorf("output %s not found", d.output)
}

// Enabled returns true if the output is on
func (d *Display) Enabled() (bool, error) {
	o, err := d.Output()
	if err != nil {
		return false, err
	}
	return o.Enabled, nil
}

// SetEnabled turns the output on or off
func (d *Display) SetEnabled(enabled bool) error {
	arg := "--off"
	if enabled {
		arg = "--on"
	}
	if _, err := d.run("--output", d.output, arg); err != nil {
		return fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return nil
}

// Scale is the output's zoom factor
func (d *Display) Scale() (float64, error) {
	o, err := d.Output()
	if err != nil {
		return 0, err
	}
	return o.Scale, nil
}

func (d *Display) SetScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("invalid output scale, %v", scale)
	}
	if _, err := d.run("--output", d.output, "--scale", strconv.FormatFloat(scale, 'f', -1, 64)); err != nil {
		return fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return nil
}

// Size is the logical size of the output in pixels, the current mode divided by the scale
func (d *Display) Size() (width, height int, err error) {
	o, err := d.Output()
	if err != nil {
		return 0, 0, err
	}
	mode, ok := o.CurrentMode()
	if !ok {
		return 0, 0, fmt.Errorf("output %s has no current mode", d.output)
	}

	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}
	width, height = mode.Width, mode.Height
	if o.Transform == "90" || o.Transform == "270" || o.Transform == "flipped-90" || o.Transform == "flipped-270" {
		width, height = height, width
	}
	return int(float64(width) / scale), int(float64(height) / scale), nil
}
