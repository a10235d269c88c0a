package door

// Command is a remote operator command.
type Command int

const (
	CmdStop Command = iota + 1
	CmdOpen
	CmdClose
	CmdManual
	CmdAuto
	CmdHalt
)

func (c Command) String() string {
	switch c {
	case CmdStop:
		return "stop"
	case CmdOpen:
		return "open"
	case CmdClose:
		return "close"
	case CmdManual:
		return "manual"
	case CmdAuto:
		return "auto"
	case CmdHalt:
		return "halt"
	default:
		return "invalid"
	}
}
