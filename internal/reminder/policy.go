package reminder

import (
	"fmt"

	"github.com/roomdesk/roomdesk/internal/model"
)

// ChannelFlags are the deployment-level toggles for the optional channels.
type ChannelFlags struct {
	JoinNowSMS    bool
	Ending10Email bool
}

// Channels says which delivery channels a reminder goes out on.
type Channels struct {
	Email bool
	SMS   bool
}

// ChannelsFor maps a reminder type to its channels. STARTS_20 always goes
// out on both. JOIN_NOW is email plus SMS behind a flag. ENDING_10 is SMS
// plus email behind a flag.
func ChannelsFor(t model.ReminderType, flags ChannelFlags) Channels {
	switch t {
	case model.ReminderStarts20:
		return Channels{Email: true, SMS: true}
	case model.ReminderJoinNow:
		return Channels{Email: true, SMS: flags.JoinNowSMS}
	case model.ReminderEnding10:
		return Channels{Email: flags.Ending10Email, SMS: true}
	default:
		panic(fmt.Sprintf("unhandled reminder type %q", t))
	}
}
