// Package channelmap decides which audio channel belongs to which speaker by
// fuzzy-matching each speaker's labeled reference text against every channel
// transcript.
//
// A channel is a candidate for a speaker when any of the speaker's snippets
// scores strictly above the threshold against the channel's full text. A
// single candidate is taken directly; among several, the channel with the
// shortest transcript text wins and equal lengths fall back to the lowest
// channel index. The mapping must cover every speaker with a distinct channel
// or it is rejected as incomplete.
package channelmap
