package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Brownie44l1/bp-api/internal/model"
)

type Handler struct {
	predictor    *model.Predictor
	log          *zap.Logger
	maxBodyBytes int64
}

func NewHandler(predictor *model.Predictor, log *zap.Logger, maxBodyBytes int64) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{
		predictor:    predictor,
		log:          log,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes registers the service endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Info)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/predict", h.Predict)
	return mux
}

type errorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Status: "error", Detail: detail})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.predictor.Info())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.predictor.Health())
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	log := h.log.With(zap.String("request_id", RequestID(r.Context())))

	result, err := h.predictor.Predict(req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			log.Info("rejected prediction request", zap.Error(err))
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Error("prediction error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Prediction failed")
		return
	}

	d := result.Details
	log.Debug("prediction",
		zap.Float64s("ppg_input_range", d.PPGInputRange[:]),
		zap.Float64s("ecg_input_range", d.ECGInputRange[:]),
		zap.Float64s("ppg_normalized_range", d.PPGNormalizedRange[:]),
		zap.Float64s("ecg_normalized_range", d.ECGNormalizedRange[:]),
		zap.Float64("normalized_prediction", d.NormalizedPrediction),
		zap.Float64("mean_bp", result.MeanBP),
	)

	writeJSON(w, http.StatusOK, result)
}
