// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vk/recgrid/internal/ctxlog"
)

// Store is the read side of a loaded container, as seen by splits.
type Store interface {
	ID() string
	AllowDuplicates() bool
	Load(ctx context.Context) error
	Users() []*User
	Items() []*Item
	Ratings() []*Rating
	Statistics() []Stat
}

// domainActivator is implemented by sinks that tag ratings with a domain.
type domainActivator interface {
	ActivateDomain(id string) *Domain
}

type pair struct{ user, item string }

// Container aggregates the ratings read by its readers. It is loaded at most
// once; later Load calls return the first outcome.
type Container struct {
	id              string
	allowDuplicates bool
	readers         []Reader

	// sink is the value readers write through; a cross-domain container
	// points it at itself.
	sink Sink

	users      []*User
	items      []*Item
	ratings    []*Rating
	userIndex  map[string]*User
	itemIndex  map[string]*Item
	pairs      map[pair]*Rating
	duplicates int

	loaded  bool
	loadErr error
	loads   int
}

// NewContainer creates an empty container reading from the given readers in order.
func NewContainer(id string, allowDuplicates bool, readers ...Reader) *Container {
	c := &Container{
		id:              id,
		allowDuplicates: allowDuplicates,
		readers:         readers,
		userIndex:       make(map[string]*User),
		itemIndex:       make(map[string]*Item),
		pairs:           make(map[pair]*Rating),
	}
	c.sink = c
	return c
}

// ID returns the container id.
func (c *Container) ID() string { return c.id }

// AllowDuplicates reports whether repeated user/item pairs are kept.
func (c *Container) AllowDuplicates() bool { return c.allowDuplicates }

// Readers returns the configured readers.
func (c *Container) Readers() []Reader { return c.readers }

// Users returns the users in first-seen order.
func (c *Container) Users() []*User { return c.users }

// Items returns the items in first-seen order.
func (c *Container) Items() []*Item { return c.items }

// Ratings returns the ratings in read order.
func (c *Container) Ratings() []*Rating { return c.ratings }

// User looks up a user by id.
func (c *Container) User(id string) (*User, bool) {
	u, ok := c.userIndex[id]
	return u, ok
}

// Item looks up an item by id.
func (c *Container) Item(id string) (*Item, bool) {
	i, ok := c.itemIndex[id]
	return i, ok
}

// Loads returns how many times the readers were actually run.
func (c *Container) Loads() int { return c.loads }

// Load runs every reader once, in order.
func (c *Container) Load(ctx context.Context) error {
	if c.loaded {
		return c.loadErr
	}
	c.loaded = true
	c.loads++

	logger := ctxlog.FromContext(ctx).With("container", c.id)
	logger.Debug("Loading data container.", "readers", len(c.readers))

	for _, r := range c.readers {
		spec := r.Spec()
		if act, ok := c.sink.(domainActivator); ok {
			act.ActivateDomain(spec.Domain)
		}
		before := len(c.ratings)
		if err := r.Read(ctx, c.sink); err != nil {
			c.loadErr = fmt.Errorf("data container '%s': reader '%s': %w", c.id, spec.ID, err)
			return c.loadErr
		}
		logger.Debug("Reader finished.", "reader", spec.ID, "path", spec.Path, "ratings", len(c.ratings)-before)
	}

	logger.Info("Data container loaded.", "users", len(c.users), "items", len(c.items), "ratings", len(c.ratings), "duplicates", c.duplicates)
	return nil
}

// AddRating records one rating. Unless duplicates are allowed, a repeated
// user/item pair keeps the first rating and returns it.
func (c *Container) AddRating(userID, itemID string, value float64, ts time.Time, slice Slice) (*Rating, error) {
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("rating needs both a user and an item id (user %q, item %q)", userID, itemID)
	}
	key := pair{userID, itemID}
	if !c.allowDuplicates {
		if existing, ok := c.pairs[key]; ok {
			c.duplicates++
			return existing, nil
		}
	}

	u, ok := c.userIndex[userID]
	if !ok {
		u = &User{ID: userID}
		c.userIndex[userID] = u
		c.users = append(c.users, u)
	}
	it, ok := c.itemIndex[itemID]
	if !ok {
		it = &Item{ID: itemID}
		c.itemIndex[itemID] = it
		c.items = append(c.items, it)
	}

	r := &Rating{User: u, Item: it, Value: value, Timestamp: ts, Slice: slice}
	u.Ratings = append(u.Ratings, r)
	it.Ratings = append(it.Ratings, r)
	c.ratings = append(c.ratings, r)
	if _, ok := c.pairs[key]; !ok {
		c.pairs[key] = r
	}
	return r, nil
}

// Statistics describes the loaded data.
func (c *Container) Statistics() []Stat {
	return []Stat{
		{Name: "ContainerId", Value: c.id},
		{Name: "Users", Value: strconv.Itoa(len(c.users))},
		{Name: "Items", Value: strconv.Itoa(len(c.items))},
		{Name: "Ratings", Value: strconv.Itoa(len(c.ratings))},
		{Name: "Duplicates", Value: strconv.Itoa(c.duplicates)},
	}
}

func (c *Container) String() string {
	return fmt.Sprintf("%d Users, %d Items, %d Ratings", len(c.users), len(c.items), len(c.ratings))
}
