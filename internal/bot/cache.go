package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// MessageCache keeps the most recent messages of each channel so edits and
// deletions can be reported with what the message looked like before.
// The session's own message state is disabled because it drops messages
// before handlers see a bulk deletion.
type MessageCache struct {
	mu         sync.Mutex
	perChannel int
	channels   map[string][]string
	messages   map[string]*discordgo.Message
}

func NewMessageCache(perChannel int) *MessageCache {
	return &MessageCache{
		perChannel: perChannel,
		channels:   make(map[string][]string),
		messages:   make(map[string]*discordgo.Message),
	}
}

// Put stores a snapshot, evicting the channel's oldest message when full.
func (c *MessageCache) Put(msg *discordgo.Message) {
	if c.perChannel <= 0 || msg == nil || msg.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(msg)
}

func (c *MessageCache) put(msg *discordgo.Message) {
	snapshot := *msg
	if _, ok := c.messages[msg.ID]; ok {
		c.messages[msg.ID] = &snapshot
		return
	}
	ids := append(c.channels[msg.ChannelID], msg.ID)
	if len(ids) > c.perChannel {
		delete(c.messages, ids[0])
		ids = ids[1:]
	}
	c.channels[msg.ChannelID] = ids
	c.messages[msg.ID] = &snapshot
}

// Swap records msg as the current version and returns the previous one.
// Partial updates, which arrive without an author, are merged onto the
// previous version so the returned current message is complete. Lookup and
// store happen under one lock so concurrent updates see each other in order.
func (c *MessageCache) Swap(msg *discordgo.Message) (before, current *discordgo.Message) {
	if msg == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	before = c.messages[msg.ID]
	current = msg
	if before != nil && msg.Author == nil {
		current = merge(before, msg)
	}
	if c.perChannel > 0 && msg.ID != "" && (before != nil || current.Author != nil) {
		c.put(current)
	}
	return before, current
}

// Delete removes and returns the message, or nil when it was never seen.
func (c *MessageCache) Delete(channelID, messageID string) *discordgo.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(channelID, messageID)
}

// DeleteBulk removes every listed message, returning snapshots in the
// same order with nil for unknown ones.
func (c *MessageCache) DeleteBulk(channelID string, messageIDs []string) []*discordgo.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshots := make([]*discordgo.Message, len(messageIDs))
	for i, id := range messageIDs {
		snapshots[i] = c.remove(channelID, id)
	}
	return snapshots
}

// DropChannel forgets a deleted channel or thread.
func (c *MessageCache) DropChannel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.channels[channelID] {
		delete(c.messages, id)
	}
	delete(c.channels, channelID)
}

func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *MessageCache) remove(channelID, messageID string) *discordgo.Message {
	msg, ok := c.messages[messageID]
	if !ok {
		return nil
	}
	delete(c.messages, messageID)
	if msg.ChannelID != "" {
		channelID = msg.ChannelID
	}
	ids := c.channels[channelID]
	for i, id := range ids {
		if id == messageID {
			c.channels[channelID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(c.channels[channelID]) == 0 {
		delete(c.channels, channelID)
	}
	return msg
}

func merge(before, update *discordgo.Message) *discordgo.Message {
	merged := *before
	if update.Content != "" {
		merged.Content = update.Content
	}
	if update.Embeds != nil {
		merged.Embeds = update.Embeds
	}
	if update.Attachments != nil {
		merged.Attachments = update.Attachments
	}
	if update.Components != nil {
		merged.Components = update.Components
	}
	if update.EditedTimestamp != nil {
		merged.EditedTimestamp = update.EditedTimestamp
	}
	if update.Flags != 0 {
		merged.Flags = update.Flags
	}
	if update.GuildID != "" {
		merged.GuildID = update.GuildID
	}
	return &merged
}
