// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package timeblock implements the time-block manager: a pure mapping
// from a wall-clock instant and horizon day index to the named
// TimeBlock that governs it, including blocks that cross midnight.
package timeblock

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/tvprogram/internal/profile"
)

// Block is the resolved result of block_for: the named block plus the
// exact instants of its start and end on the day it matched, with day
// arithmetic for midnight-crossing blocks already applied.
type Block struct {
	Name      string
	Start     time.Time
	End       time.Time
	Unblocked bool
	Criteria  profile.BlockCriteria
}

// Manager holds a sorted copy of a profile's time blocks anchored to a
// horizon start date. It is pure given that block list: block_for never
// mutates and never depends on anything but its arguments.
type Manager struct {
	blocks       []profile.TimeBlock
	horizonStart time.Time
}

// NewManager sorts blocks by start-HH:MM. horizonStart anchors
// day_index 0 to a calendar date; only its date and location are used.
func NewManager(blocks []profile.TimeBlock, horizonStart time.Time) *Manager {
	sorted := make([]profile.TimeBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartHM < sorted[j].StartHM })

	y, m, d := horizonStart.Date()
	return &Manager{
		blocks:       sorted,
		horizonStart: time.Date(y, m, d, 0, 0, 0, 0, horizonStart.Location()),
	}
}

// BlockFor implements block_for(instant, day_index) -> (block_name,
// block_start_instant, block_end_instant). day_index is relative to the
// manager's horizon start (day 0 is that calendar date).
func (m *Manager) BlockFor(instant time.Time, dayIndex int) (Block, error) {
	for _, b := range m.blocks {
		start, err := m.instantFor(dayIndex, b.StartHM)
		if err != nil {
			return Block{}, err
		}

		crossesMidnight := b.EndHM <= b.StartHM

		if !crossesMidnight {
			end, err := m.instantFor(dayIndex, b.EndHM)
			if err != nil {
				return Block{}, err
			}
			if !instant.Before(start) && instant.Before(end) {
				return Block{Name: b.Name, Start: start, End: end, Criteria: b.Criteria}, nil
			}
			continue
		}

		end, err := m.instantFor(dayIndex+1, b.EndHM)
		if err != nil {
			return Block{}, err
		}
		if !instant.Before(start) && instant.Before(end) {
			return Block{Name: b.Name, Start: start, End: end, Criteria: b.Criteria}, nil
		}

		// Previous day's wrap: this block started yesterday and may still
		// be open at the start of today.
		prevStart, err := m.instantFor(dayIndex-1, b.StartHM)
		if err != nil {
			return Block{}, err
		}
		wrapEnd, err := m.instantFor(dayIndex, b.EndHM)
		if err != nil {
			return Block{}, err
		}
		if !instant.Before(prevStart) && instant.Before(wrapEnd) {
			return Block{Name: b.Name, Start: prevStart, End: wrapEnd, Criteria: b.Criteria}, nil
		}
	}

	return m.unblocked(instant, dayIndex)
}

// unblocked builds the synthetic "unblocked" block for a gap no
// configured block covers: it spans from the nearest boundary at or
// before instant to the nearest boundary strictly after it.
func (m *Manager) unblocked(instant time.Time, dayIndex int) (Block, error) {
	var boundaries []time.Time
	for d := dayIndex - 1; d <= dayIndex+1; d++ {
		for _, b := range m.blocks {
			s, err := m.instantFor(d, b.StartHM)
			if err != nil {
				return Block{}, err
			}
			e, err := m.instantFor(d, b.EndHM)
			if err != nil {
				return Block{}, err
			}
			boundaries = append(boundaries, s, e)
		}
	}

	dayStart, err := m.instantFor(dayIndex, "00:00")
	if err != nil {
		return Block{}, err
	}
	nextDayStart, err := m.instantFor(dayIndex+1, "00:00")
	if err != nil {
		return Block{}, err
	}

	start := dayStart
	end := nextDayStart
	for _, t := range boundaries {
		if !t.After(instant) && t.After(start) {
			start = t
		}
		if t.After(instant) && t.Before(end) {
			end = t
		}
	}

	return Block{Name: "unblocked", Start: start, End: end, Unblocked: true}, nil
}

func (m *Manager) instantFor(dayIndex int, hm string) (time.Time, error) {
	hh, mm, err := parseHM(hm)
	if err != nil {
		return time.Time{}, err
	}
	day := m.horizonStart.AddDate(0, 0, dayIndex)
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location()), nil
}

func parseHM(hm string) (hh, mm int, err error) {
	if len(hm) != 5 || hm[2] != ':' {
		return 0, 0, fmt.Errorf("timeblock: malformed HH:MM %q", hm)
	}
	if _, err := fmt.Sscanf(hm, "%02d:%02d", &hh, &mm); err != nil {
		return 0, 0, fmt.Errorf("timeblock: malformed HH:MM %q: %w", hm, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("timeblock: out of range HH:MM %q", hm)
	}
	return hh, mm, nil
}
