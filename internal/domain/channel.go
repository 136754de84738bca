package domain

// Channel identifies one of the named embeddings stored per Pokemon. Each
// channel is produced from a different textual rendering of the entity and
// backed by its own vector field in the index.
type Channel string

const (
	// ChannelName embeds the bare name.
	ChannelName Channel = "name"
	// ChannelType embeds the type line ("water flying type pokemon").
	ChannelType Channel = "type"
	// ChannelDescription embeds a generated characteristic description.
	ChannelDescription Channel = "description"
	// ChannelCombined embeds a single sentence covering name, types and stats.
	ChannelCombined Channel = "combined"
)

// Channels lists every embedding channel in index-schema order.
func Channels() []Channel {
	return []Channel{ChannelName, ChannelType, ChannelDescription, ChannelCombined}
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelName, ChannelType, ChannelDescription, ChannelCombined:
		return true
	}
	return false
}

// Field returns the hash field holding this channel's vector.
func (c Channel) Field() string {
	return string(c) + "_embedding"
}
