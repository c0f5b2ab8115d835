package pictures

import (
	"encoding/json"
	"gallery-server/core"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const VersionHeader = "X-Gallery-Version"

type (
	AddPictureRequest struct {
		Author string `json:"author"`
		URL    string `json:"url"`
	}

	AddPictureResponse struct {
		Result  core.AddResult `json:"result"`
		Picture *core.Picture  `json:"picture,omitempty"`
	}

	ListResponse struct {
		Version  uint64         `json:"version"`
		Pictures []core.Picture `json:"pictures"`
	}

	VersionResponse struct {
		Version uint64 `json:"version"`
	}
)

// HandleList returns the gallery, optionally narrowed by ?author=.
func HandleList(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := store.Version()
		pictures := core.FilterByAuthor(store.All(), r.URL.Query().Get("author"))

		w.Header().Set(VersionHeader, strconv.FormatUint(version, 10))
		render.JSON(w, r, ListResponse{Version: version, Pictures: pictures})
	}
}

// HandleAdd validates and stores a new picture.
func HandleAdd(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddPictureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		picture, result := store.Add(req.Author, req.URL)
		resp := AddPictureResponse{Result: result}

		switch result {
		case core.AddSuccess:
			resp.Picture = &picture
			render.Status(r, http.StatusCreated)
		case core.AddDuplicate:
			render.Status(r, http.StatusConflict)
		case core.AddEmptyFields:
			render.Status(r, http.StatusUnprocessableEntity)
		}

		render.JSON(w, r, resp)
	}
}

// HandleRemove deletes one picture. Unknown ids still answer 204.
func HandleRemove(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "Invalid picture id", http.StatusBadRequest)
			return
		}

		store.Remove(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleClear(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSeed(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Seed()
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleVersion lets clients that do not hold a live connection poll for changes.
func HandleVersion(store core.PictureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, VersionResponse{Version: store.Version()})
	}
}
