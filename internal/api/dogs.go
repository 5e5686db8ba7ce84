package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/model"
	"github.com/shelterpaws/waggle/internal/repository"
)

// CreateDogRequest is the validated body for POST /dogs.
type CreateDogRequest struct {
	Shelter          string `json:"shelter" validate:"required"`
	City             string `json:"city" validate:"required"`
	State            string `json:"state" validate:"required"`
	DogName          string `json:"dog_name" validate:"required"`
	Species          string `json:"species" validate:"required"`
	Description      string `json:"description" validate:"required"`
	Birthday         string `json:"dog_birthday"`
	Weight           any    `json:"dog_weight"`
	Color            string `json:"dog_color"`
	ShelterEntryDate string `json:"shelter_entry_date"`
}

// UpdateDogRequest is the validated body for PUT /dogs/{dogID}.
type UpdateDogRequest struct {
	ShelterID        string `json:"shelter_id" validate:"required"`
	DogName          string `json:"dog_name" validate:"required"`
	Species          string `json:"species" validate:"required"`
	Description      string `json:"description" validate:"required"`
	Birthday         string `json:"dog_birthday"`
	Weight           any    `json:"dog_weight"`
	Color            string `json:"dog_color"`
	ShelterEntryDate string `json:"shelter_entry_date"`
}

// InteractionRequest is the validated body for POST /interactions.
type InteractionRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	ShelterID       string `json:"shelter_id" validate:"required"`
	DogID           string `json:"dog_id" validate:"required"`
	InteractionType string `json:"interaction_type" validate:"required,oneof=wag growl"`
}

func (s *Server) handleDogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListDogs(w, r)
	case http.MethodPost:
		s.handleCreateDog(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleDogRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/dogs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	dogID := parts[0]
	switch {
	case len(parts) == 1:
		s.handleDog(w, r, dogID)
	case len(parts) == 3 && parts[1] == "images" && parts[2] != "":
		s.handleDeleteImage(w, r, dogID, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCreateDog(w http.ResponseWriter, r *http.Request) {
	var req CreateDogRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !model.AcceptedSpecies(req.Species) {
		respondError(w, http.StatusUnprocessableEntity, "only Labrador Retrievers are accepted")
		return
	}
	dog := &model.Dog{
		ShelterID:        model.ShelterID(req.Shelter, req.City, req.State),
		DogID:            uuid.NewString(),
		Shelter:          req.Shelter,
		City:             req.City,
		State:            req.State,
		Name:             req.DogName,
		Species:          req.Species,
		Description:      req.Description,
		Birthday:         req.Birthday,
		Weight:           parseWeight(req.Weight),
		Color:            req.Color,
		ShelterEntryDate: req.ShelterEntryDate,
	}
	if err := s.dogs.Create(r.Context(), dog); err != nil {
		s.log.Error("create dog failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create dog")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Dog created successfully", "dog": dog})
}

func (s *Server) handleListDogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.Filter{
		State: q.Get("state"),
		Color: q.Get("color"),
	}
	if v := q.Get("min_weight"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinWeight = f
		}
	}
	if v := q.Get("max_weight"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxWeight = f
		}
	}
	dogs, err := s.dogs.List(r.Context(), filter)
	if err != nil {
		s.log.Error("list dogs failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to retrieve dogs")
		return
	}
	if dogs == nil {
		dogs = []model.Dog{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"dogs": dogs, "count": len(dogs)})
}

func (s *Server) handleDog(w http.ResponseWriter, r *http.Request, dogID string) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetDog(w, r, dogID)
	case http.MethodPut:
		s.handleUpdateDog(w, r, dogID)
	case http.MethodDelete:
		s.handleDeleteDog(w, r, dogID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleGetDog(w http.ResponseWriter, r *http.Request, dogID string) {
	shelterID := r.URL.Query().Get("shelter_id")
	if shelterID == "" {
		respondError(w, http.StatusBadRequest, "shelter_id query parameter is required")
		return
	}
	dog, err := s.dogs.Get(r.Context(), shelterID, dogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "dog not found")
			return
		}
		s.log.Error("get dog failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to retrieve dog")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"dog": dog})
}

func (s *Server) handleUpdateDog(w http.ResponseWriter, r *http.Request, dogID string) {
	var req UpdateDogRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !model.AcceptedSpecies(req.Species) {
		respondError(w, http.StatusUnprocessableEntity, "only Labrador Retrievers are accepted")
		return
	}
	dog, err := s.dogs.Get(r.Context(), req.ShelterID, dogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "dog not found")
			return
		}
		s.log.Error("get dog failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to retrieve dog")
		return
	}
	dog.Name = req.DogName
	dog.Species = req.Species
	dog.Description = req.Description
	dog.Birthday = req.Birthday
	dog.Weight = parseWeight(req.Weight)
	dog.Color = req.Color
	dog.ShelterEntryDate = req.ShelterEntryDate
	if err := s.dogs.Update(r.Context(), dog); err != nil {
		s.log.Error("update dog failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update dog")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Dog updated successfully", "dog": dog})
}

func (s *Server) handleDeleteDog(w http.ResponseWriter, r *http.Request, dogID string) {
	shelterID := r.URL.Query().Get("shelter_id")
	if shelterID == "" {
		respondError(w, http.StatusBadRequest, "shelter_id query parameter is required")
		return
	}
	images, err := s.dogs.Delete(r.Context(), shelterID, dogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "dog not found")
			return
		}
		s.log.Error("delete dog failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete dog")
		return
	}
	ctx := r.Context()
	for _, img := range images {
		for _, key := range []string{img.OriginalKey, img.StandardKey, img.ThumbnailKey} {
			if err := s.store.Delete(ctx, s.cfg.ImageBucket, key); err != nil {
				s.log.Warn("image blob not deleted", zap.String("key", key), zap.Error(err))
			}
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Dog deleted successfully"})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request, dogID, imageID string) {
	if r.Method != http.MethodDelete {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shelterID := r.URL.Query().Get("shelter_id")
	if shelterID == "" {
		respondError(w, http.StatusBadRequest, "shelter_id query parameter is required")
		return
	}
	if err := s.gen.Remove(r.Context(), s.cfg.ImageBucket, shelterID, dogID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "image not found")
			return
		}
		s.log.Error("delete image failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Image deleted successfully"})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req InteractionRequest
		if err := s.decodeValid(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		in := &model.Interaction{
			UserID:          req.UserID,
			ShelterID:       req.ShelterID,
			DogID:           req.DogID,
			InteractionType: model.InteractionType(req.InteractionType),
		}
		if err := s.interactions.Create(r.Context(), in); err != nil {
			s.log.Error("record interaction failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to record interaction")
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"message": "Interaction recorded successfully", "interaction": in})
	case http.MethodGet:
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "user_id query parameter is required")
			return
		}
		interactions, err := s.interactions.ListByUser(r.Context(), userID)
		if err != nil {
			s.log.Error("list interactions failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to retrieve interactions")
			return
		}
		if interactions == nil {
			interactions = []model.Interaction{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"interactions": interactions, "count": len(interactions)})
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

var weightDigits = regexp.MustCompile(`\d+\.?\d*`)

// parseWeight accepts numbers as well as strings like "60 lbs".
func parseWeight(v any) float64 {
	switch w := v.(type) {
	case float64:
		return w
	case string:
		if m := weightDigits.FindString(strings.ToLower(w)); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
