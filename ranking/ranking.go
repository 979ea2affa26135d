// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// OptionID identifies one candidate in the pool.
type OptionID string

// Placeholder is the value held by the trailing "choose next" row.
const Placeholder OptionID = ""

// NoDestination is passed to Reorder when a drag ends outside the list.
const NoDestination = -1

var (
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrUnknownOption   = errors.New("unknown option")
	ErrOptionTaken     = errors.New("option is ranked in another row")
	ErrStale           = errors.New("previous value does not match row")
	ErrDuplicateOption = errors.New("duplicate option id")
)

// Candidate is one entry of the master list handed to New.
type Candidate struct {
	ID    OptionID
	Label string
}

// Option is a candidate in the pool. Selected is true iff a row holds it.
type Option struct {
	ID       OptionID `json:"id"`
	Label    string   `json:"label"`
	Selected bool     `json:"selected"`
}

// Row is one ranking slot. A placeholder row carries the pool option it was
// seeded from so the presentation layer can preselect it.
type Row struct {
	ID      string   `json:"id"`
	Value   OptionID `json:"value"`
	Seed    OptionID `json:"seed,omitempty"`
	Movable bool     `json:"movable"`
}

// IsPlaceholder reports whether the row is the unassigned trailing slot.
func (r Row) IsPlaceholder() bool {
	return r.Value == Placeholder
}

// Controller owns the option pool and the ordered ranking list.
// It is not safe for concurrent use.
type Controller struct {
	options   []Option
	index     map[OptionID]int
	rows      []Row
	lastRowID uint64
	submitted bool
}

// New builds the pool in input order and starts the list with a single
// placeholder row seeded from the first option. Candidates without an ID get
// "option-<index>".
func New(candidates []Candidate) (*Controller, error) {
	c := &Controller{
		options: make([]Option, 0, len(candidates)),
		index:   make(map[OptionID]int, len(candidates)),
	}

	for i, cand := range candidates {
		id := cand.ID
		if id == Placeholder {
			id = OptionID("option-" + strconv.Itoa(i))
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOption, id)
		}
		c.index[id] = len(c.options)
		c.options = append(c.options, Option{ID: id, Label: cand.Label})
	}

	if len(c.options) > 0 {
		c.rows = []Row{c.newPlaceholder(c.options[0].ID)}
	}

	return c, nil
}

// FromLabels is New for a plain label list; ids are always "option-<index>".
func FromLabels(labels ...string) *Controller {
	candidates := make([]Candidate, len(labels))
	for i, label := range labels {
		candidates[i] = Candidate{Label: label}
	}
	c, _ := New(candidates) // generated ids never collide
	return c
}

// Select assigns option to row. previous is the value the caller believes the
// row currently holds; a mismatch means the event is stale and nothing changes.
//
// Choosing Placeholder reverts the row: the vacated rank collapses and the row
// becomes the single trailing placeholder. Choosing a real option on the last
// row appends a fresh placeholder while unranked options remain.
func (c *Controller) Select(row int, previous, option OptionID) error {
	if err := c.checkRow(row); err != nil {
		return err
	}

	current := c.rows[row].Value
	if previous != current {
		return fmt.Errorf("%w: row %d holds %q, not %q", ErrStale, row, current, previous)
	}

	if option != Placeholder {
		i, ok := c.index[option]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownOption, option)
		}
		if c.options[i].Selected && option != current {
			return fmt.Errorf("%w: %s", ErrOptionTaken, option)
		}
	}

	if current != Placeholder {
		c.setSelected(current, false)
	}

	if option == Placeholder {
		r := c.rows[row]
		r.Value = Placeholder
		r.Seed = c.seedAfter(current)
		c.collapse(row, r)
	} else {
		c.setSelected(option, true)
		c.rows[row].Value = option
		c.rows[row].Seed = Placeholder

		if row == len(c.rows)-1 && len(c.rows) < len(c.options) {
			c.rows = append(c.rows, c.newPlaceholder(c.seedAfter(option)))
		}
	}

	c.refreshMovable()
	return nil
}

// Deselect frees the option held by row and replaces the row with a new
// placeholder at the tail. Ranks below it shift up by one. A row that already
// holds the placeholder is left alone and false is returned.
func (c *Controller) Deselect(row int) (bool, error) {
	if err := c.checkRow(row); err != nil {
		return false, err
	}

	current := c.rows[row].Value
	if current == Placeholder {
		return false, nil
	}

	c.setSelected(current, false)
	c.collapse(row, c.newPlaceholder(c.seedAfter(current)))
	c.refreshMovable()
	return true, nil
}

// Reorder moves the row at source to destination after a completed drag.
// It returns false without changing anything when the drag was cancelled,
// when the dragged row is the placeholder, or when the row would not move.
// Dropping onto the placeholder lands just before it.
func (c *Controller) Reorder(source, destination int) (bool, error) {
	if destination == NoDestination {
		return false, nil
	}
	if err := c.checkRow(source); err != nil {
		return false, err
	}
	if err := c.checkRow(destination); err != nil {
		return false, err
	}
	if c.rows[source].IsPlaceholder() {
		return false, nil
	}

	if last := len(c.rows) - 1; destination == last && c.rows[last].IsPlaceholder() {
		destination--
	}
	if source == destination {
		return false, nil
	}

	r := c.rows[source]
	c.rows = slices.Delete(c.rows, source, source+1)
	c.rows = slices.Insert(c.rows, destination, r)
	return true, nil
}

// Submit toggles the submitted flag and returns it with the current ranking.
func (c *Controller) Submit() (bool, []Option) {
	c.submitted = !c.submitted
	return c.submitted, c.Ranking()
}

// Submitted reports the submitted flag.
func (c *Controller) Submitted() bool {
	return c.submitted
}

// Options returns a copy of the pool in pool order.
func (c *Controller) Options() []Option {
	return slices.Clone(c.options)
}

// Rows returns a copy of the ranking list.
func (c *Controller) Rows() []Row {
	return slices.Clone(c.rows)
}

// Len returns the number of rows, placeholder included.
func (c *Controller) Len() int {
	return len(c.rows)
}

// Ranking returns the ranked options in rank order, placeholder excluded.
func (c *Controller) Ranking() []Option {
	ranked := make([]Option, 0, len(c.rows))
	for _, r := range c.rows {
		if r.IsPlaceholder() {
			continue
		}
		ranked = append(ranked, c.options[c.index[r.Value]])
	}
	return ranked
}

// Choices returns the options row may offer: every unselected option plus the
// one the row holds, in pool order.
func (c *Controller) Choices(row int) ([]Option, error) {
	if err := c.checkRow(row); err != nil {
		return nil, err
	}

	held := c.rows[row].Value
	choices := make([]Option, 0, len(c.options))
	for _, opt := range c.options {
		if !opt.Selected || opt.ID == held {
			choices = append(choices, opt)
		}
	}
	return choices, nil
}

// Lookup returns the pool option with the given id.
func (c *Controller) Lookup(id OptionID) (Option, bool) {
	i, ok := c.index[id]
	if !ok {
		return Option{}, false
	}
	return c.options[i], true
}

func (c *Controller) checkRow(row int) error {
	if row < 0 || row >= len(c.rows) {
		return fmt.Errorf("%w: %d (rows: %d)", ErrIndexOutOfRange, row, len(c.rows))
	}
	return nil
}

func (c *Controller) setSelected(id OptionID, selected bool) {
	c.options[c.index[id]].Selected = selected
}

func (c *Controller) newPlaceholder(seed OptionID) Row {
	c.lastRowID++
	return Row{
		ID:    "row-" + strconv.FormatUint(c.lastRowID, 10),
		Value: Placeholder,
		Seed:  seed,
	}
}

// seedAfter returns the first unselected option after id in pool order,
// wrapping around. Placeholder when the pool is exhausted.
func (c *Controller) seedAfter(id OptionID) OptionID {
	start := 0
	if i, ok := c.index[id]; ok {
		start = i + 1
	}

	n := len(c.options)
	for k := range n {
		opt := c.options[(start+k)%n]
		if !opt.Selected {
			return opt.ID
		}
	}
	return Placeholder
}

// collapse drops the row at index and every placeholder row, then appends
// tail as the only placeholder.
func (c *Controller) collapse(index int, tail Row) {
	kept := make([]Row, 0, len(c.rows))
	for i, r := range c.rows {
		if i == index || r.IsPlaceholder() {
			continue
		}
		kept = append(kept, r)
	}
	c.rows = append(kept, tail)
}

func (c *Controller) refreshMovable() {
	movable := len(c.rows) > 2
	for i := range c.rows {
		c.rows[i].Movable = movable && !c.rows[i].IsPlaceholder()
	}
}
