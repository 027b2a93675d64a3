// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package data holds the rating data evaluated by experiments.
//
// A Container aggregates the users, items and ratings produced by an ordered
// list of Readers. Containers are loaded lazily and at most once, no matter
// how many splits share them. A CrossDomainContainer additionally tags every
// rating with the domain that was active while it was read, and keeps item
// ids of different domains apart.
package data
