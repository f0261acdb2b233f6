package reminder

import (
	"testing"

	"github.com/roomdesk/roomdesk/internal/model"
)

func TestChannelsFor(t *testing.T) {
	cases := []struct {
		name  string
		typ   model.ReminderType
		flags ChannelFlags
		want  Channels
	}{
		{"starts20 default", model.ReminderStarts20, ChannelFlags{}, Channels{Email: true, SMS: true}},
		{"starts20 flags ignored", model.ReminderStarts20, ChannelFlags{JoinNowSMS: true, Ending10Email: true}, Channels{Email: true, SMS: true}},
		{"joinnow default", model.ReminderJoinNow, ChannelFlags{}, Channels{Email: true, SMS: false}},
		{"joinnow sms enabled", model.ReminderJoinNow, ChannelFlags{JoinNowSMS: true}, Channels{Email: true, SMS: true}},
		{"ending10 default", model.ReminderEnding10, ChannelFlags{}, Channels{Email: false, SMS: true}},
		{"ending10 email enabled", model.ReminderEnding10, ChannelFlags{Ending10Email: true}, Channels{Email: true, SMS: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChannelsFor(tc.typ, tc.flags)
			if got != tc.want {
				t.Fatalf("ChannelsFor(%s, %+v) = %+v, want %+v", tc.typ, tc.flags, got, tc.want)
			}
		})
	}
}

func TestChannelsFor_UnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown reminder type")
		}
	}()
	ChannelsFor(model.ReminderType("NOPE"), ChannelFlags{})
}
