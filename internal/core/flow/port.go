// If you are AI: This file defines PortID and the Port identity shared by senders and receivers.
// PortID is used as a map key in sender link tables and in the registry.

package flow

import (
	"fmt"
)

// DataType is the declared payload type of a port.
// A sender and a receiver can only be linked when their data types are equal.
type DataType string

// PortID uniquely identifies a port by owning block and port name.
// It is comparable and can be used as a map key.
type PortID struct {
	Block string `json:"block"` // Owning block id
	Port  string `json:"port"`  // Port name within the block
}

// NewPortID creates a new PortID from block id and port name.
func NewPortID(block, port string) PortID {
	return PortID{
		Block: block,
		Port:  port,
	}
}

// String returns a stable, deterministic string representation of the port id.
// Format: "block/port"
func (id PortID) String() string {
	return fmt.Sprintf("%s/%s", id.Block, id.Port)
}

// Port is the identity common to senders and receivers.
type Port struct {
	id       PortID
	dataType DataType
}

// ID returns the port identity.
func (p *Port) ID() PortID {
	return p.id
}

// BlockID returns the id of the block that owns the port.
func (p *Port) BlockID() string {
	return p.id.Block
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.id.Port
}

// DataType returns the declared data type.
func (p *Port) DataType() DataType {
	return p.dataType
}
