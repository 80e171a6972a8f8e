// If you are AI: This file implements the Registry that catalogues ports and live links by PortID.
// The registry lets services connect and disconnect ports by identity.

package flow

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps port ids to sender and receiver ports and records live links.
// Lock expectations: RWMutex-protected; Connect and Disconnect run under the
// write lock so the link table mirrors the ports exactly.
type Registry struct {
	mu        sync.RWMutex
	senders   map[PortID]*Sender
	receivers map[PortID]*Receiver
	links     map[PortID]linkEntry // Keyed by receiver id
}

// linkEntry records one live link.
type linkEntry struct {
	src      PortID
	capacity int
}

// LinkInfo describes a live link.
type LinkInfo struct {
	From     PortID   `json:"from"`
	To       PortID   `json:"to"`
	DataType DataType `json:"data_type"`
	Capacity int      `json:"capacity"`
	Queued   int      `json:"queued"`
}

// PortInfo describes a registered port.
type PortInfo struct {
	ID        PortID   `json:"id"`
	Kind      string   `json:"kind"` // "sender" or "receiver"
	DataType  DataType `json:"data_type"`
	Connected bool     `json:"connected"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		senders:   make(map[PortID]*Sender),
		receivers: make(map[PortID]*Receiver),
		links:     make(map[PortID]linkEntry),
	}
}

// AddSender registers s. Returns ErrPortExists if its id is taken.
func (r *Registry) AddSender(s *Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.senders[s.ID()]; exists {
		return fmt.Errorf("sender %s: %w", s.ID(), ErrPortExists)
	}
	r.senders[s.ID()] = s
	return nil
}

// AddReceiver registers rc. Returns ErrPortExists if its id is taken.
func (r *Registry) AddReceiver(rc *Receiver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.receivers[rc.ID()]; exists {
		return fmt.Errorf("receiver %s: %w", rc.ID(), ErrPortExists)
	}
	r.receivers[rc.ID()] = rc
	return nil
}

// Sender returns the sender registered under id, or nil.
func (r *Registry) Sender(id PortID) *Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.senders[id]
}

// Receiver returns the receiver registered under id, or nil.
func (r *Registry) Receiver(id PortID) *Receiver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.receivers[id]
}

// Connect links the registered ports src and dst.
func (r *Registry) Connect(src, dst PortID, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, rc, err := r.lookup(src, dst)
	if err != nil {
		return err
	}
	if err := Connect(s, rc, capacity); err != nil {
		return err
	}
	r.links[dst] = linkEntry{src: src, capacity: capacity}
	return nil
}

// Disconnect removes the link between src and dst and returns the number
// of drained frames. Unlinked pairs drain nothing.
func (r *Registry) Disconnect(src, dst PortID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, rc, err := r.lookup(src, dst)
	if err != nil {
		return 0, err
	}
	drained := Disconnect(s, rc)
	if entry, ok := r.links[dst]; ok && entry.src == src {
		delete(r.links, dst)
	}
	return drained, nil
}

// RemoveSender disconnects every receiver of the sender and unregisters it.
func (r *Registry) RemoveSender(id PortID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.senders[id]
	if !ok {
		return false
	}
	for dst, entry := range r.links {
		if entry.src != id {
			continue
		}
		if rc := r.receivers[dst]; rc != nil {
			Disconnect(s, rc)
		}
		delete(r.links, dst)
	}
	delete(r.senders, id)
	return true
}

// RemoveReceiver disconnects the receiver from its source and unregisters it.
func (r *Registry) RemoveReceiver(id PortID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.receivers[id]
	if !ok {
		return false
	}
	if entry, linked := r.links[id]; linked {
		if s := r.senders[entry.src]; s != nil {
			Disconnect(s, rc)
		}
		delete(r.links, id)
	}
	delete(r.receivers, id)
	return true
}

// HasLink returns true if src is currently linked to dst.
func (r *Registry) HasLink(src, dst PortID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.links[dst]
	return ok && entry.src == src
}

// Links returns all live links sorted by receiver id.
func (r *Registry) Links() []LinkInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]LinkInfo, 0, len(r.links))
	for dst, entry := range r.links {
		info := LinkInfo{From: entry.src, To: dst, Capacity: entry.capacity}
		if rc := r.receivers[dst]; rc != nil {
			info.DataType = rc.DataType()
			info.Queued = rc.Len()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].To.String() < infos[j].To.String() })
	return infos
}

// Ports returns all registered ports sorted by id, senders first.
func (r *Registry) Ports() []PortInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PortInfo, 0, len(r.senders)+len(r.receivers))
	for id, s := range r.senders {
		infos = append(infos, PortInfo{ID: id, Kind: "sender", DataType: s.DataType(), Connected: s.IsConnected()})
	}
	for id, rc := range r.receivers {
		infos = append(infos, PortInfo{ID: id, Kind: "receiver", DataType: rc.DataType(), Connected: rc.IsConnected()})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Kind != infos[j].Kind {
			return infos[i].Kind == "sender"
		}
		return infos[i].ID.String() < infos[j].ID.String()
	})
	return infos
}

// Senders returns every registered sender.
func (r *Registry) Senders() []*Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Sender, 0, len(r.senders))
	for _, s := range r.senders {
		out = append(out, s)
	}
	return out
}

// lookup resolves a sender/receiver pair. Caller holds r.mu.
func (r *Registry) lookup(src, dst PortID) (*Sender, *Receiver, error) {
	s, ok := r.senders[src]
	if !ok {
		return nil, nil, fmt.Errorf("sender %s: %w", src, ErrUnknownPort)
	}
	rc, ok := r.receivers[dst]
	if !ok {
		return nil, nil, fmt.Errorf("receiver %s: %w", dst, ErrUnknownPort)
	}
	return s, rc, nil
}
