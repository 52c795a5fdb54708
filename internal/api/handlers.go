package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// Messages returned when a request fails for reasons other than its input.
const (
	msgPricingFailed  = "price prediction failed"
	msgTrainJobFailed = "training job creation failed"
)

// MessageResponse is the body of endpoints that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// PricingResponse is the body of a successful /pricing call.
type PricingResponse struct {
	ModelVersion string  `json:"modelVersion"`
	CarPrice     []int64 `json:"carPrice"`
}

// TrainJobResponse is the body of a successful /train_job call.
type TrainJobResponse struct {
	Message string `json:"message"`
	Dataset string `json:"dataset"`
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, MessageResponse{Message: "car pricing service is up"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	sch := s.pipeline.Schema()

	feature := r.URL.Query().Get("feature")
	if feature == "" {
		jsonResponse(w, http.StatusOK, sch.Names())
		return
	}

	domain, err := sch.Domain(feature)
	if err != nil {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("feature %q not found", feature))
		return
	}
	jsonResponse(w, http.StatusOK, domain)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	rec, err := DecodeCar(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.fail(w, r, err, msgPricingFailed)
		return
	}

	ds, err := s.pipeline.Prepare([]model.RawRecord{rec}, model.ModeInference)
	if err != nil {
		s.fail(w, r, err, msgPricingFailed)
		return
	}

	handle, err := s.models.Get(ctx)
	if err != nil {
		s.fail(w, r, err, msgPricingFailed)
		return
	}

	prices, err := handle.Model.PredictPrices(ds)
	if err != nil {
		s.fail(w, r, err, msgPricingFailed)
		return
	}

	jsonResponse(w, http.StatusOK, PricingResponse{CarPrice: prices, ModelVersion: handle.Version})
}

func (s *Server) handleTrainJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		jsonError(w, http.StatusServiceUnavailable, "training jobs are not configured")
		return
	}

	key, err := s.jobs.CreateJob(r.Context())
	if err != nil {
		s.fail(w, r, err, msgTrainJobFailed)
		return
	}
	jsonResponse(w, http.StatusOK, TrainJobResponse{Message: "training job created", Dataset: key})
}

// fail answers 400 with the error text for caller mistakes and 500 with message for
// everything else.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	if common.IsClientError(err) {
		s.logger.Warn("Rejected request", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	common.LogError(r.Context(), err, "Request failed", common.Fields{
		"request_id": RequestID(r.Context()),
		"path":       r.URL.Path,
	})
	jsonError(w, http.StatusInternalServerError, message)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
