package core

import (
	"fmt"
	"strings"
	"time"
)

type (
	// Picture is one gallery entry. Records are immutable once stored.
	Picture struct {
		ID     int    `json:"id"`
		Author string `json:"author"`
		URL    string `json:"url"`
	}

	// AddResult is the outcome of PictureStore.Add.
	AddResult int

	// ChangeKind names the mutation a Change describes.
	ChangeKind string

	// Change describes one successful mutation of the gallery.
	Change struct {
		ID      string     `json:"id"`
		Kind    ChangeKind `json:"kind"`
		Picture *Picture   `json:"picture,omitempty"`
		Version uint64     `json:"version"`
		At      time.Time  `json:"at"`
	}

	// Listener receives changes synchronously, after the store lock is released.
	Listener func(Change)

	// PictureStore owns the authoritative, ordered picture collection.
	PictureStore interface {
		// All returns a copy of the collection in insertion order.
		All() []Picture

		// Seed appends the sample pictures if and only if the collection is empty.
		Seed()

		// Add validates and appends a new picture. The returned Picture is only
		// meaningful when the result is AddSuccess.
		Add(author, url string) (Picture, AddResult)

		// Remove deletes the picture with the given id. Unknown ids are ignored.
		Remove(id int)

		// Clear empties the collection.
		Clear()

		// Version is incremented once for every successful mutation.
		Version() uint64

		// Subscribe registers l to run after each successful mutation and
		// returns a function that removes it again.
		Subscribe(l Listener) (unsubscribe func())
	}
)

const (
	AddSuccess AddResult = iota
	AddDuplicate
	AddEmptyFields
)

const (
	ChangeSeeded  ChangeKind = "seeded"
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeCleared ChangeKind = "cleared"
)

func (r AddResult) String() string {
	switch r {
	case AddSuccess:
		return "success"
	case AddDuplicate:
		return "duplicate"
	case AddEmptyFields:
		return "empty_fields"
	}
	return fmt.Sprintf("AddResult(%d)", int(r))
}

func (r AddResult) MarshalText() ([]byte, error) {
	switch r {
	case AddSuccess, AddDuplicate, AddEmptyFields:
		return []byte(r.String()), nil
	}
	return nil, fmt.Errorf("unknown add result %d", int(r))
}

// FilterByAuthor returns the pictures whose author contains query, ignoring
// case. A blank query matches everything.
func FilterByAuthor(pictures []Picture, query string) []Picture {
	query = strings.TrimSpace(query)
	if query == "" {
		return pictures
	}

	needle := strings.ToLower(query)
	filtered := make([]Picture, 0, len(pictures))
	for _, p := range pictures {
		if strings.Contains(strings.ToLower(p.Author), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
