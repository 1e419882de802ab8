package voice

import (
	"errors"
	"strings"
)

// MessagePrefix binds a signed join message to room access.
const MessagePrefix = "ATA_VOICE_JOIN:"

var (
	errMissingPrefix = errors.New("message must start with " + MessagePrefix)
	errMalformed     = errors.New("message must be " + MessagePrefix + "<room>:<nonce>")
)

// JoinMessage is a parsed ATA_VOICE_JOIN:<room>:<nonce> message.
type JoinMessage struct {
	Room  string
	Nonce string
}

// FormatJoinMessage renders the message a wallet signs to join room.
func FormatJoinMessage(room, nonce string) string {
	return MessagePrefix + room + ":" + nonce
}

// ParseJoinMessage splits msg into room and nonce. The nonce is everything
// after the last colon, so room names may contain colons.
func ParseJoinMessage(msg string) (JoinMessage, error) {
	rest, ok := strings.CutPrefix(msg, MessagePrefix)
	if !ok {
		return JoinMessage{}, errMissingPrefix
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 || i == len(rest)-1 {
		return JoinMessage{}, errMalformed
	}
	return JoinMessage{Room: rest[:i], Nonce: rest[i+1:]}, nil
}
