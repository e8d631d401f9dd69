package telegram

import (
	"sync"
	"time"

	"example.com/dutyroster/internal/domain"
)

// Session is per-chat conversational state: the order of the last rendered
// due list (positional shortcuts like "/done 3" resolve against it) and a
// pending answer capture. It is presentation state owned by this package;
// the scheduling engine never sees it.
type Session struct {
	LocationID int64
	Date       time.Time
	ListedIDs  []int64
	Pending    *PendingAnswer
}

// PendingAnswer marks that the chat's next message is the answer payload
// for an occurrence whose answer kind needs more than an acknowledgement.
type PendingAnswer struct {
	AssignmentID int64
	LocationID   int64
	Date         time.Time
	Kind         domain.AnswerKind
}

type SessionStore interface {
	Get(chatID int64) (Session, bool)
	Put(chatID int64, s Session)
	Delete(chatID int64)
}

type memorySessions struct {
	mu sync.Mutex
	m  map[int64]Session
}

// NewSessionStore returns an in-memory, mutex-guarded session store.
func NewSessionStore() SessionStore {
	return &memorySessions{m: make(map[int64]Session)}
}

func (s *memorySessions) Get(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[chatID]
	return sess, ok
}

func (s *memorySessions) Put(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = sess
}

func (s *memorySessions) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
