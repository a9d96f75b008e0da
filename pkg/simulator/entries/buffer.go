// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package entries contains implementation of the P4 entities held by the simulated switch, i.e. tables and registers
package entries

import (
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
)

// BatchSender is an abstract function for returning batches of read entities
type BatchSender func(entities []*p4api.Entity) error

type entityBuffer struct {
	entities []*p4api.Entity
	sender   BatchSender
}

func newBuffer(sender BatchSender) *entityBuffer {
	return &entityBuffer{
		entities: make([]*p4api.Entity, 0, 64),
		sender:   sender,
	}
}

// Sends the specified entity via an accumulation buffer, flushing when buffer reaches capacity
func (eb *entityBuffer) sendEntity(entity *p4api.Entity) error {
	var err error
	eb.entities = append(eb.entities, entity)

	// If we've reached the buffer capacity, flush it
	if len(eb.entities) == cap(eb.entities) {
		err = eb.flush()
	}
	return err
}

// Flushes the buffer by sending any buffered entities and resets the buffer
func (eb *entityBuffer) flush() error {
	if len(eb.entities) == 0 {
		return nil
	}
	err := eb.sender(eb.entities)
	eb.entities = make([]*p4api.Entity, 0, cap(eb.entities))
	return err
}
