package state

// Exchange is one completed turn of conversation.
// Assistant holds the reply shown to the player, User the action that produced it.
type Exchange struct {
	Assistant string `json:"assistant"`
	User      string `json:"user"`
}

// History is the ordered record of exchanges in a session, oldest first.
type History []Exchange

// Append returns the history with one more exchange at the end.
func (h History) Append(user, assistant string) History {
	return append(h, Exchange{User: user, Assistant: assistant})
}

// Last returns the most recent n exchanges. n <= 0 returns the full history.
func (h History) Last(n int) History {
	if n <= 0 || n >= len(h) {
		return h
	}
	return h[len(h)-n:]
}
