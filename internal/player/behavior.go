package player

import "fmt"

// LoadBehavior selects how loaded movies interleave with execution.
type LoadBehavior int

const (
	// BehaviorStreaming lets movies execute before they finish loading;
	// preloading is budgeted per frame and progress ticks up normally.
	BehaviorStreaming LoadBehavior = iota
	// BehaviorDelayed delays execution of loaded movies until preloading
	// finishes; movies see themselves load immediately.
	BehaviorDelayed
	// BehaviorBlocking preloads synchronously, blocking the frame loop.
	BehaviorBlocking
)

// String returns the behavior name.
func (b LoadBehavior) String() string {
	switch b {
	case BehaviorStreaming:
		return "streaming"
	case BehaviorDelayed:
		return "delayed"
	case BehaviorBlocking:
		return "blocking"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// ParseLoadBehavior parses a configuration string.
func ParseLoadBehavior(s string) (LoadBehavior, error) {
	switch s {
	case "", "streaming":
		return BehaviorStreaming, nil
	case "delayed":
		return BehaviorDelayed, nil
	case "blocking":
		return BehaviorBlocking, nil
	default:
		return 0, fmt.Errorf("unknown load behavior %q", s)
	}
}
