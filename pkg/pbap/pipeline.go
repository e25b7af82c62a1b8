// Package pbap implements the phonebook client extension: a paged contact
// download pipeline that runs once per connection, gated on local storage
// and account readiness, persisting batches to a SQLite store.
package pbap

import (
	"fmt"
	"sync"

	"github.com/bthost-project/bthost-go/pkg/device"
)

// PipelineState is the download sub-state within a connection.
type PipelineState uint8

const (
	// PipelineIdle means no download is running.
	PipelineIdle PipelineState = iota

	// PipelineRequesting means the phonebook size request is outstanding.
	PipelineRequesting

	// PipelinePaging means contact pages are being fetched.
	PipelinePaging

	// PipelineDone means the whole phonebook has been stored.
	PipelineDone
)

// String returns a human-readable sub-state name.
func (s PipelineState) String() string {
	switch s {
	case PipelineIdle:
		return "IDLE"
	case PipelineRequesting:
		return "REQUESTING"
	case PipelinePaging:
		return "PAGING"
	case PipelineDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// DefaultBatchSize is the number of contacts fetched per page.
const DefaultBatchSize = 50

// Client issues phonebook requests to a connected device. Responses come
// back asynchronously through OnPhonebookSize and OnContactBatch.
type Client interface {
	// RequestPhonebookSize asks for the total entry count.
	// Reports acceptance.
	RequestPhonebookSize(addr device.Address) bool

	// RequestPage asks for count entries starting at offset.
	// Reports acceptance.
	RequestPage(addr device.Address, offset, count int) bool
}

// Pipeline drives one device's phonebook download. Any failure, and a
// disconnect, resets it to Idle so the next connection starts over.
type Pipeline struct {
	addr      device.Address
	client    Client
	store     *Store
	batchSize int

	mu           sync.Mutex
	state        PipelineState
	total        int
	fetched      int
	connected    bool
	storageReady bool
	accountReady bool
}

// NewPipeline creates an idle pipeline for one device.
func NewPipeline(addr device.Address, client Client, store *Store) *Pipeline {
	return &Pipeline{
		addr:      addr,
		client:    client,
		store:     store,
		batchSize: DefaultBatchSize,
	}
}

// SetStorageReady flags local contact storage availability. Becoming ready
// while connected starts a pending download.
func (p *Pipeline) SetStorageReady(ready bool) {
	p.mu.Lock()
	p.storageReady = ready
	p.mu.Unlock()
	p.maybeStart()
}

// SetAccountReady flags account availability. Becoming ready while
// connected starts a pending download.
func (p *Pipeline) SetAccountReady(ready bool) {
	p.mu.Lock()
	p.accountReady = ready
	p.mu.Unlock()
	p.maybeStart()
}

// State returns the current sub-state.
func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress returns fetched and total entry counts.
func (p *Pipeline) Progress() (fetched, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetched, p.total
}

// connectedChanged tracks the engine state. A disconnect aborts any
// running download.
func (p *Pipeline) connectedChanged(connected bool) {
	p.mu.Lock()
	p.connected = connected
	if !connected {
		p.resetLocked()
	}
	p.mu.Unlock()

	if connected {
		p.maybeStart()
	}
}

// OnPhonebookSize delivers the metadata response.
func (p *Pipeline) OnPhonebookSize(size int) {
	p.mu.Lock()
	if p.state != PipelineRequesting {
		p.mu.Unlock()
		return
	}
	if size <= 0 {
		p.state = PipelineDone
		p.total = 0
		p.mu.Unlock()
		return
	}
	p.state = PipelinePaging
	p.total = size
	p.fetched = 0
	offset, count := 0, p.pageSizeLocked(0)
	p.mu.Unlock()

	if !p.client.RequestPage(p.addr, offset, count) {
		p.fail()
	}
}

// OnContactBatch delivers one page of contacts. The batch is persisted and
// the next page requested until the reported size is reached.
func (p *Pipeline) OnContactBatch(contacts []Contact) {
	p.mu.Lock()
	if p.state != PipelinePaging {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := p.store.SaveBatch(p.addr, contacts); err != nil {
		p.fail()
		return
	}

	p.mu.Lock()
	p.fetched += len(contacts)
	if p.fetched >= p.total || len(contacts) == 0 {
		p.state = PipelineDone
		p.mu.Unlock()
		return
	}
	offset, count := p.fetched, p.pageSizeLocked(p.fetched)
	p.mu.Unlock()

	if !p.client.RequestPage(p.addr, offset, count) {
		p.fail()
	}
}

// OnFailure aborts the download. The pipeline returns to Idle and will
// retry on the next readiness or connection change.
func (p *Pipeline) OnFailure() {
	p.fail()
}

func (p *Pipeline) maybeStart() {
	p.mu.Lock()
	if p.state != PipelineIdle || !p.connected || !p.storageReady || !p.accountReady {
		p.mu.Unlock()
		return
	}
	p.state = PipelineRequesting
	p.mu.Unlock()

	if !p.client.RequestPhonebookSize(p.addr) {
		p.fail()
	}
}

func (p *Pipeline) fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Pipeline) resetLocked() {
	p.state = PipelineIdle
	p.total = 0
	p.fetched = 0
}

func (p *Pipeline) pageSizeLocked(offset int) int {
	remaining := p.total - offset
	if remaining < p.batchSize {
		return remaining
	}
	return p.batchSize
}

func (p *Pipeline) summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PipelinePaging {
		return fmt.Sprintf("pbap=%s %d/%d", p.state, p.fetched, p.total)
	}
	return fmt.Sprintf("pbap=%s", p.state)
}
