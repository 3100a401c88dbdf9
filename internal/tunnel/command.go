package tunnel

// CommandKind identifies which command was sent to the state machine.
type CommandKind int

const (
	CmdConnect CommandKind = iota
	CmdDisconnect
	CmdBlock
	CmdAllowLAN
)

// Command is an input to the state machine. Only the fields relevant to
// Kind are populated.
type Command struct {
	Kind CommandKind

	// CmdConnect
	Params Parameters

	// CmdBlock
	Reason   BlockReason
	AllowLAN bool // also used by CmdAllowLAN
}

// Connect builds a CmdConnect command.
func Connect(params Parameters) Command {
	return Command{Kind: CmdConnect, Params: params}
}

// Disconnect builds a CmdDisconnect command.
func Disconnect() Command {
	return Command{Kind: CmdDisconnect}
}

// Block builds a CmdBlock command.
func Block(reason BlockReason, allowLAN bool) Command {
	return Command{Kind: CmdBlock, Reason: reason, AllowLAN: allowLAN}
}

// AllowLAN builds a CmdAllowLAN command.
func AllowLAN(allow bool) Command {
	return Command{Kind: CmdAllowLAN, AllowLAN: allow}
}
