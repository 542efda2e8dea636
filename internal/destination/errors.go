package destination

import (
	"fmt"
	"strings"
)

// ChannelError means the configured channel is gone, unreachable, or the
// wrong kind of channel.
type ChannelError struct {
	ChannelID string
	Reason    string
}

func (e *ChannelError) Error() string {
	return e.Reason
}

// PermissionsError lists the capabilities the bot is missing in the channel.
type PermissionsError struct {
	ChannelID string
	Missing   []Permission
}

func (e *PermissionsError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, perm := range e.Missing {
		names = append(names, "**"+perm.Name+"**")
	}
	return fmt.Sprintf("I don't have the %s permission%s in <#%s>.", strings.Join(names, ", "), plural(len(names)), e.ChannelID)
}

func (e *PermissionsError) MissingNames() []string {
	names := make([]string, 0, len(e.Missing))
	for _, perm := range e.Missing {
		names = append(names, perm.Name)
	}
	return names
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
