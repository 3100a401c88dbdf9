package tunnel

import "context"

// pendingAction is the queued intent carried through Disconnecting while
// waiting for the outgoing tunnel process to exit. after selects which
// fields are meaningful: reconnectParams for ActionReconnect, blockReason
// and allowLAN for ActionBlock, none for ActionNothing.
//
// Queueing rules (data-model invariant #4): a later Connect always wins
// (Reconnect overrides everything); Disconnect downgrades any queued
// Block or Reconnect to Nothing; Block overrides Nothing or Reconnect.
// AllowLan patches the allow-LAN component of whichever intent is queued
// without changing which intent is queued.
type pendingAction struct {
	after           ActionAfterDisconnect
	reconnectParams Parameters
	blockReason     BlockReason
	allowLAN        bool
}

func afterNothing() pendingAction {
	return pendingAction{after: ActionNothing}
}

func afterReconnect(params Parameters) pendingAction {
	return pendingAction{after: ActionReconnect, reconnectParams: params}
}

func afterBlock(reason BlockReason, allowLAN bool) pendingAction {
	return pendingAction{after: ActionBlock, blockReason: reason, allowLAN: allowLAN}
}

// disconnecting: the previous tunnel process has been asked to exit (or
// exited on its own) and the state machine is awaiting confirmation
// before acting on the queued intent. The firewall policy installed by
// the prior state is left in place for the duration — nothing may leak
// while a process is still shutting down.
func (m *Machine) disconnecting(action pendingAction, handle ProcessHandle) stepFunc {
	return func(ctx context.Context) stepFunc {
		m.report(Transition{Kind: Disconnecting, After: action.after})

		for {
			select {
			case <-ctx.Done():
				return nil

			case <-handle.Exited():
				switch action.after {
				case ActionReconnect:
					return m.connecting(action.reconnectParams)
				case ActionBlock:
					return m.blocked(action.blockReason, action.allowLAN)
				default:
					return m.disconnected
				}

			case cmd := <-m.commands:
				switch cmd.Kind {
				case CmdConnect:
					action = afterReconnect(cmd.Params)
				case CmdDisconnect:
					action = afterNothing()
				case CmdBlock:
					action = afterBlock(cmd.Reason, cmd.AllowLAN)
				case CmdAllowLAN:
					switch action.after {
					case ActionReconnect:
						action.reconnectParams = action.reconnectParams.WithAllowLAN(cmd.AllowLAN)
					case ActionBlock:
						action.allowLAN = cmd.AllowLAN
					}
				}
			}
		}
	}
}
