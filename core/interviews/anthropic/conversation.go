package anthropic

import "sync"

// conversationStore keeps one conversation per (session, mode) pair, the
// same way a stateful backend would key its in-memory history.
type conversationStore struct {
	mu            sync.Mutex
	conversations map[conversationKey]*conversation
}

type conversationKey struct {
	sessionID string
	mode      string
}

func newConversationStore() *conversationStore {
	return &conversationStore{conversations: map[conversationKey]*conversation{}}
}

func (s *conversationStore) reset(sessionID, mode, systemPrompt, pendingQuestion string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation := &conversation{
		systemPrompt:    systemPrompt,
		pendingQuestion: pendingQuestion,
	}
	s.conversations[conversationKey{sessionID: sessionID, mode: mode}] = conversation
	return conversation
}

func (s *conversationStore) get(sessionID, mode, systemPrompt string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversationKey{sessionID: sessionID, mode: mode}
	if existing, ok := s.conversations[key]; ok {
		return existing
	}
	conversation := &conversation{systemPrompt: systemPrompt}
	s.conversations[key] = conversation
	return conversation
}

type conversation struct {
	mu              sync.Mutex
	systemPrompt    string
	history         []message
	pendingQuestion string
}

// takePendingQuestion returns the opening question exactly once; the first
// answer folds it into the user turn so the model sees both sides.
func (c *conversation) takePendingQuestion() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pendingQuestion
	c.pendingQuestion = ""
	return pending
}

// restorePending puts the opening question back after a failed first turn
// so the retry folds it in again. A question set in the meantime wins.
func (c *conversation) restorePending(pending string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pending != "" && c.pendingQuestion == "" {
		c.pendingQuestion = pending
	}
}

func (c *conversation) append(msg message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msg)
}

func (c *conversation) dropLast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) > 0 {
		c.history = c.history[:len(c.history)-1]
	}
}

func (c *conversation) messages() []message {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]message, len(c.history))
	copy(messages, c.history)
	return messages
}

// answeredPairs counts the candidate turns recorded so far.
func (c *conversation) answeredPairs() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairs := 0
	for _, msg := range c.history {
		if msg.Role == messageRoleUser {
			pairs++
		}
	}
	return pairs
}
