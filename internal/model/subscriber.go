package model

import "github.com/samber/lo"

type ChannelType string

const (
	ChannelEmail    ChannelType = "email"
	ChannelWhatsApp ChannelType = "whatsapp"
	ChannelTelegram ChannelType = "telegram"
)

// Channels lists every supported channel type. Order here is the order
// senders are built and reported in.
var Channels = []ChannelType{ChannelEmail, ChannelWhatsApp, ChannelTelegram}

// Subscriber is one delivery target on one channel. A person subscribed on
// several channels has several subscriber rows.
type Subscriber struct {
	Channel     ChannelType
	DisplayName string
	Address     string
	LineFilter  []string
}

// Wants reports whether the subscriber is interested in a disruption touching
// the given lines. An empty line filter means all lines.
func (s Subscriber) Wants(lines []string) bool {
	if len(s.LineFilter) == 0 {
		return true
	}
	return lo.Some(s.LineFilter, lines)
}
