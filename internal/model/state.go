package model

// ToolStatus tracks the lifecycle of one asynchronous tool invocation.
// Transitions are Idle -> Loading -> {Success, Error}, re-armed on the
// next trigger.
type ToolStatus int

// Lifecycle states.
const (
	StatusIdle ToolStatus = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s ToolStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// FileSlot holds the file selection for one named input slot. A slot is
// either single-valued or multi-valued, never both.
type FileSlot struct {
	Single *FileHandle
	Multi  []FileHandle
}

// IsEmpty reports whether the slot has no selection at all.
func (s FileSlot) IsEmpty() bool {
	return s.Single == nil && len(s.Multi) == 0
}

// ToolState is the isolated per-tool state held by the feature store.
// Mutating one tool's state never observably affects another's.
type ToolState struct {
	Inputs       map[string]FileSlot
	Parameters   map[string]string
	Status       ToolStatus
	Results      []ResultRecord
	ErrorMessage string
}

// Clone returns a structurally independent copy of the state so callers
// can never mutate the store through a returned snapshot.
func (s ToolState) Clone() ToolState {
	out := s
	out.Inputs = make(map[string]FileSlot, len(s.Inputs))
	for name, slot := range s.Inputs {
		cp := slot
		if slot.Single != nil {
			h := *slot.Single
			cp.Single = &h
		}
		if slot.Multi != nil {
			cp.Multi = append([]FileHandle(nil), slot.Multi...)
		}
		out.Inputs[name] = cp
	}
	out.Parameters = make(map[string]string, len(s.Parameters))
	for k, v := range s.Parameters {
		out.Parameters[k] = v
	}
	if s.Results != nil {
		out.Results = append([]ResultRecord(nil), s.Results...)
	}
	return out
}
