package memory

import (
	"gallery-server/core"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type subscription struct {
	id       uint64
	listener core.Listener
}

type pictureStore struct {
	mu       sync.RWMutex
	pictures []core.Picture
	version  uint64

	subMu     sync.Mutex
	nextSubID uint64
	subs      []subscription

	now func() time.Time
}

// NewPictureStore returns an empty in-memory picture store.
func NewPictureStore() core.PictureStore {
	return &pictureStore{
		pictures: make([]core.Picture, 0, len(samplePictures)),
		now:      time.Now,
	}
}

func (s *pictureStore) All() []core.Picture {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pictures := make([]core.Picture, len(s.pictures))
	copy(pictures, s.pictures)

	logrus.WithField("count", len(pictures)).Debug("Pictures listed")
	return pictures
}

func (s *pictureStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *pictureStore) Seed() {
	s.mu.Lock()
	if count := len(s.pictures); count > 0 {
		s.mu.Unlock()
		logrus.WithField("count", count).Debug("Gallery already populated, skipping samples")
		return
	}
	s.pictures = append(s.pictures, samplePictures...)
	change := s.commit(core.ChangeSeeded, nil)
	s.mu.Unlock()

	logrus.WithField("count", len(samplePictures)).Info("Sample pictures seeded")
	s.notify(change)
}

func (s *pictureStore) Add(author, url string) (core.Picture, core.AddResult) {
	author = strings.TrimSpace(author)
	url = strings.TrimSpace(url)
	log := logrus.WithFields(logrus.Fields{
		"author": author,
		"url":    url,
	})

	if author == "" || url == "" {
		log.WithField("result", core.AddEmptyFields).Warn("Picture rejected: empty fields")
		return core.Picture{}, core.AddEmptyFields
	}

	s.mu.Lock()
	maxID := 0
	for _, p := range s.pictures {
		if p.URL == url {
			s.mu.Unlock()
			log.WithField("result", core.AddDuplicate).Warn("Picture rejected: url already in gallery")
			return core.Picture{}, core.AddDuplicate
		}
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	picture := core.Picture{ID: maxID + 1, Author: author, URL: url}
	s.pictures = append(s.pictures, picture)
	change := s.commit(core.ChangeAdded, &picture)
	s.mu.Unlock()

	log.WithField("picture_id", picture.ID).Info("Picture added successfully")
	s.notify(change)
	return picture, core.AddSuccess
}

func (s *pictureStore) Remove(id int) {
	log := logrus.WithField("picture_id", id)

	s.mu.Lock()
	idx := -1
	for i, p := range s.pictures {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		log.Debug("Picture not in gallery, nothing to remove")
		return
	}

	removed := s.pictures[idx]
	s.pictures = append(s.pictures[:idx], s.pictures[idx+1:]...)
	change := s.commit(core.ChangeRemoved, &removed)
	s.mu.Unlock()

	log.Info("Picture removed successfully")
	s.notify(change)
}

func (s *pictureStore) Clear() {
	s.mu.Lock()
	count := len(s.pictures)
	if count == 0 {
		s.mu.Unlock()
		logrus.Debug("Gallery already empty")
		return
	}
	s.pictures = s.pictures[:0]
	change := s.commit(core.ChangeCleared, nil)
	s.mu.Unlock()

	logrus.WithField("count", count).Info("Gallery cleared")
	s.notify(change)
}

func (s *pictureStore) Subscribe(l core.Listener) func() {
	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, listener: l})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// commit bumps the version and builds the change record. Callers hold s.mu.
func (s *pictureStore) commit(kind core.ChangeKind, picture *core.Picture) core.Change {
	s.version++
	return core.Change{
		ID:      ulid.Make().String(),
		Kind:    kind,
		Picture: picture,
		Version: s.version,
		At:      s.now(),
	}
}

// notify runs listeners outside s.mu so they may read the store.
func (s *pictureStore) notify(change core.Change) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.listener(change)
	}
}
