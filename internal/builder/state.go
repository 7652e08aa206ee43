package builder

// State is the position of one unit in the compile-and-place lifecycle:
//
//	Pending -> Invoking -> Succeeded | Failed
//	Succeeded -> Copied | CopyFailed   (only when a placer is configured)
type State int

const (
	Pending State = iota
	Invoking
	Succeeded
	Failed
	Copied
	CopyFailed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Invoking:
		return "invoking"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Copied:
		return "copied"
	case CopyFailed:
		return "copy_failed"
	default:
		return "unknown"
	}
}

// Compiled reports whether the compiler produced the artifact.
func (s State) Compiled() bool {
	return s == Succeeded || s == Copied || s == CopyFailed
}

var transitions = map[State][]State{
	Pending:   {Invoking},
	Invoking:  {Succeeded, Failed},
	Succeeded: {Copied, CopyFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
