package switchctl

// Action is the verb carried in a SetState command.
type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// StatusQueryMarker is the command value of a status query.
const StatusQueryMarker = "get_status"

type ActionEntry struct {
	Action Action `json:"action"`
}

type CommandEntry struct {
	DeviceID      string        `json:"ccmdId"`
	Cmd           []ActionEntry `json:"cmd"`
	DestinationID string        `json:"destinationId"`
	SourceID      string        `json:"sourceId"`
}

// SetStateCommand asks the controller to open or close one device.
type SetStateCommand struct {
	Command   []CommandEntry `json:"Command"`
	UsrDataSN string         `json:"UsrDataSN"`
	PhoneNum  string         `json:"phoneNum"`
}

// QueryStatusCommand asks the controller for the session's device status.
type QueryStatusCommand struct {
	UsrDataSN string `json:"UsrDataSN"`
	Command   string `json:"command"`
}

func NewSetStateCommand(id Identity, action Action) SetStateCommand {
	return SetStateCommand{
		Command: []CommandEntry{{
			DeviceID:      id.DeviceID,
			Cmd:           []ActionEntry{{Action: action}},
			DestinationID: id.DestinationID,
			SourceID:      id.SourceID,
		}},
		UsrDataSN: id.UsrDataSN,
		PhoneNum:  id.PhoneNum,
	}
}

func NewQueryStatusCommand(id Identity) QueryStatusCommand {
	return QueryStatusCommand{
		UsrDataSN: id.UsrDataSN,
		Command:   StatusQueryMarker,
	}
}

// Intent is a requested state change coming from the host.
type Intent int

const (
	IntentTurnOff Intent = iota
	IntentTurnOn
)

func IntentFor(on bool) Intent {
	if on {
		return IntentTurnOn
	}
	return IntentTurnOff
}

func (i Intent) Action() Action {
	if i == IntentTurnOn {
		return ActionOpen
	}
	return ActionClose
}

// Target is the state committed when the interaction is confirmed.
func (i Intent) Target() bool {
	return i == IntentTurnOn
}

func (i Intent) String() string {
	if i == IntentTurnOn {
		return "turn_on"
	}
	return "turn_off"
}
