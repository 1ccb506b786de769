package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/beacon-bot/beacon/internal/protocol"
)

// SentMessage records one Send call on the mock.
type SentMessage struct {
	Ref     string
	Channel string
	Content string
}

// Mock is an in-memory Outbound and Notifier for tests. Zero value is not
// usable; construct with NewMock.
type Mock struct {
	mu      sync.Mutex
	nextRef int

	Sent    []SentMessage
	Edits   map[string]string
	Deleted []string
	Notices map[string][]protocol.Outbound

	// FailSend / FailEdit / FailDelete, when set, make the corresponding
	// call fail with that error.
	FailSend   error
	FailEdit   error
	FailDelete error
}

func NewMock() *Mock {
	return &Mock{
		Edits:   make(map[string]string),
		Notices: make(map[string][]protocol.Outbound),
	}
}

func (m *Mock) Send(_ context.Context, channel, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend != nil {
		return "", m.FailSend
	}
	m.nextRef++
	ref := fmt.Sprintf("msg-%d", m.nextRef)
	m.Sent = append(m.Sent, SentMessage{Ref: ref, Channel: channel, Content: content})
	return ref, nil
}

func (m *Mock) Edit(_ context.Context, ref, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailEdit != nil {
		return m.FailEdit
	}
	m.Edits[ref] = content
	return nil
}

func (m *Mock) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.Deleted = append(m.Deleted, ref)
	return nil
}

func (m *Mock) Notify(userID string, msg protocol.Outbound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices[userID] = append(m.Notices[userID], msg)
}

func (m *Mock) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func (m *Mock) NoticeCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notices[userID])
}

// DeleteCount returns how many deletes targeted ref.
func (m *Mock) DeleteCount(ref string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.Deleted {
		if d == ref {
			n++
		}
	}
	return n
}

// LastNotice returns the most recent reply sent to userID, if any.
func (m *Mock) LastNotice(userID string) (protocol.Outbound, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.Notices[userID]
	if len(msgs) == 0 {
		return protocol.Outbound{}, false
	}
	return msgs[len(msgs)-1], true
}
