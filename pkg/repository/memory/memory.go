package memory

import (
	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
)

// Memory is the in-memory repository used for development and tests
type Memory struct {
	event   *eventRepository
	process *processRepository
	post    *postRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		event:   newEventRepository(),
		process: newProcessRepository(),
		post:    newPostRepository(),
	}
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) Process() interfaces.ProcessRepository {
	return m.process
}

func (m *Memory) Post() interfaces.PostRepository {
	return m.post
}

func (m *Memory) Close() error {
	return nil
}
