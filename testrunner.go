package mapview

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	// DeltaY is the wheel step for "wheel".
	DeltaY float64 `json:"deltaY,omitempty"`
	// From and To are finger distances for "pinch".
	From float64 `json:"from,omitempty"`
	To   float64 `json:"to,omitempty"`
	// Scale is the view width for "location".
	Scale float64 `json:"scale,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"screenshot": true, "click": true, "drag": true, "wheel": true,
	"pinch": true, "wait": true, "location": true,
}

// TestRunner sequences injected input, location jumps and screenshots across
// frames for automated visual testing. Attach it with SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script:
//
//	{"steps": [
//	  {"action": "location", "x": 0.5, "y": 0.5, "scale": 0.1},
//	  {"action": "drag", "fromX": 100, "fromY": 100, "toX": 200, "toY": 120, "frames": 10},
//	  {"action": "wheel", "x": 128, "y": 128, "deltaY": -3},
//	  {"action": "pinch", "x": 128, "y": 128, "from": 50, "to": 150, "frames": 8},
//	  {"action": "wait", "frames": 30},
//	  {"action": "screenshot", "label": "after"}
//	]}
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner. Its steps advance during Update.
func (r *Renderer) SetTestRunner(runner *TestRunner) {
	r.runner = runner
}

// Done reports whether all steps in the test script have been executed.
func (tr *TestRunner) Done() bool {
	return tr.done
}

// step advances the runner by one frame.
func (tr *TestRunner) step(r *Renderer) {
	if tr.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(r.injectQueue) > 0 {
		return
	}
	if tr.waitCount > 0 {
		tr.waitCount--
		return
	}
	if tr.cursor >= len(tr.steps) {
		tr.done = true
		return
	}

	st := tr.steps[tr.cursor]
	tr.cursor++

	switch st.Action {
	case "screenshot":
		r.Screenshot(st.Label)
		r.Refresh()
	case "click":
		r.InjectClick(st.X, st.Y)
	case "drag":
		r.InjectDrag(Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}, st.Frames)
	case "wheel":
		r.InjectWheel(st.X, st.Y, st.DeltaY)
	case "pinch":
		r.InjectPinch(Vec2{st.X, st.Y}, st.From, st.To, st.Frames)
	case "location":
		if err := r.SetLocation(Location{X: st.X, Y: st.Y, Scale: st.Scale}); err != nil {
			r.logger.Warn("test script location", "step", tr.cursor-1, "err", err)
		}
	case "wait":
		if st.Frames > 0 {
			tr.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if tr.cursor >= len(tr.steps) && tr.waitCount == 0 && len(r.injectQueue) == 0 {
		tr.done = true
	}
}
