package attachment

// Flag is a tri-state cached classification: unknown until computed, then
// permanently yes or no. The zero value is FlagUnknown.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagYes
	FlagNo
)

// Known reports whether the flag has been computed.
func (f Flag) Known() bool { return f != FlagUnknown }

// Bool returns the flag as a boolean; unknown counts as false.
func (f Flag) Bool() bool { return f == FlagYes }

// FlagOf converts a computed boolean answer into a Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagYes
	}
	return FlagNo
}

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "yes"
	case FlagNo:
		return "no"
	default:
		return "unknown"
	}
}
