package stores

import (
	"gallery-server/config"
	"gallery-server/core"
	"gallery-server/stores/memory"

	"github.com/sirupsen/logrus"
)

// NewStore builds the session's picture store. The gallery lives in memory
// only and is gone when the process exits.
func NewStore(cfg config.Config) core.PictureStore {
	store := memory.NewPictureStore()

	storageField := logrus.Fields{
		"storageType": "in-memory",
		"seedSamples": cfg.SeedSamples,
	}

	if cfg.SeedSamples {
		store.Seed()
	}
	storageField["pictures"] = len(store.All())

	logrus.WithFields(storageField).Info("Use storage")
	return store
}
