// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultDomainID names the domain used by readers that declare none.
const DefaultDomainID = "default"

// CrossDomainContainer is a Container whose ratings belong to domains.
type CrossDomainContainer struct {
	*Container

	defaultDomain *Domain
	domains       map[string]*Domain
	order         []*Domain
	active        *Domain
}

// NewCrossDomainContainer creates a cross-domain container. defaultDomain is
// activated for readers that declare no domain; nil selects a fresh domain
// named DefaultDomainID.
func NewCrossDomainContainer(id string, allowDuplicates bool, defaultDomain *Domain, readers ...Reader) *CrossDomainContainer {
	if defaultDomain == nil {
		defaultDomain = NewDomain(DefaultDomainID)
	}
	c := &CrossDomainContainer{
		Container:     NewContainer(id, allowDuplicates, readers...),
		defaultDomain: defaultDomain,
		domains:       make(map[string]*Domain),
	}
	c.Container.sink = c
	return c
}

// ActiveDomain returns the domain ratings are currently tagged with.
func (c *CrossDomainContainer) ActiveDomain() *Domain { return c.active }

// Domains returns the registered domains in registration order.
func (c *CrossDomainContainer) Domains() []*Domain { return c.order }

// Domain looks up a registered domain.
func (c *CrossDomainContainer) Domain(id string) (*Domain, bool) {
	d, ok := c.domains[id]
	return d, ok
}

// ActivateDomain makes the domain with the given id active, registering it
// when it has not been seen. An empty id selects the default domain.
func (c *CrossDomainContainer) ActivateDomain(id string) *Domain {
	if id == "" {
		id = c.defaultDomain.ID
	}
	d, ok := c.domains[id]
	if !ok {
		d = NewDomain(id)
		if id == c.defaultDomain.ID {
			d = c.defaultDomain
		}
		c.domains[id] = d
		c.order = append(c.order, d)
	}
	c.active = d
	return d
}

// AddRating records a rating in the active domain. Item ids are suffixed
// with the domain id so that items of different domains never collide.
func (c *CrossDomainContainer) AddRating(userID, itemID string, value float64, ts time.Time, slice Slice) (*Rating, error) {
	if c.active == nil {
		return nil, fmt.Errorf("cross-domain container '%s' has no active domain", c.id)
	}
	r, err := c.Container.AddRating(userID, itemID+"_"+c.active.ID, value, ts, slice)
	if err != nil {
		return nil, err
	}
	if r.Domain == nil {
		r.Domain = c.active
		c.active.Ratings = append(c.active.Ratings, r)
	}
	return r, nil
}

// Statistics describes the loaded data including the domain count.
func (c *CrossDomainContainer) Statistics() []Stat {
	stats := c.Container.Statistics()
	return append(stats[:1:1], append([]Stat{{Name: "Domains", Value: strconv.Itoa(len(c.order))}}, stats[1:]...)...)
}

func (c *CrossDomainContainer) String() string {
	return fmt.Sprintf("%d Domains, %s", len(c.order), c.Container.String())
}
