package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/backend"
	"github.com/arjeninventory/admin-gateway/internal/imaging"
	"github.com/arjeninventory/admin-gateway/internal/models"
	"github.com/arjeninventory/admin-gateway/internal/wholesale"
)

// batchMaxUploadBytes bounds the whole multipart batch form.
const batchMaxUploadBytes = 100 << 20

// batchOrderPart is the JSON "order" part of the multipart batch request.
// Image bytes travel as separate file parts in item order.
type batchOrderPart struct {
	ClientInfo   models.ClientInfo `json:"clientInfo"`
	Items        []batchItemPart   `json:"items"`
	TotalWeight  float64           `json:"totalWeight"`
	ShipmentType string            `json:"shippmenttype"`
}

type batchItemPart struct {
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	QuantityType string  `json:"quantityType"`
	RawPrice     float64 `json:"rawPrice"`
	Profit       float64 `json:"profit"`
}

// WholesaleHandler serves the wholesale order routes: proxy CRUD plus the
// batch upload workflow.
type WholesaleHandler struct {
	backend    *backend.Client
	uploader   Uploader
	imageOpts  imaging.Options
	folder     string
	rollback   bool
	cookieName string
	log        *slog.Logger
}

// NewWholesaleHandler creates a wholesale handler.
func NewWholesaleHandler(
	client *backend.Client,
	uploader Uploader,
	imageOpts imaging.Options,
	folder string,
	rollback bool,
	cookieName string,
	log *slog.Logger,
) *WholesaleHandler {
	return &WholesaleHandler{
		backend:    client,
		uploader:   uploader,
		imageOpts:  imageOpts,
		folder:     folder,
		rollback:   rollback,
		cookieName: cookieName,
		log:        log,
	}
}

func (h *WholesaleHandler) token(r *http.Request) string {
	return auth.TokenFromRequest(r, h.cookieName)
}

// List handles GET /api/wholesale
func (h *WholesaleHandler) List(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.WholesaleURL(), "/api/wholesale", h.token(r), "Failed to fetch wholesale orders")
}

// Create handles POST /api/wholesale: a direct order create for callers
// whose images are already hosted. Batch callers use Batch instead.
func (h *WholesaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.WholesaleURL(), "/api/wholesale", h.token(r), "Failed to create wholesale order")
}

// Get handles GET /api/wholesale/{id}
func (h *WholesaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.WholesaleURL(), "/api/wholesale/"+url.PathEscape(id), h.token(r), "Failed to fetch wholesale order")
}

// Update handles PUT /api/wholesale/{id}
func (h *WholesaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.WholesaleURL(), "/api/wholesale/"+url.PathEscape(id), h.token(r), "Failed to update wholesale order")
}

// Delete handles DELETE /api/wholesale/{id}
func (h *WholesaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.WholesaleURL(), "/api/wholesale/"+url.PathEscape(id), h.token(r), "Failed to delete wholesale order")
}

// Batch handles POST /api/wholesale/batch: one multipart request carrying
// the order metadata and every item image, driven through the sequential
// upload-then-submit workflow. The response is the backend's created
// order; any item failure yields no order at all.
func (h *WholesaleHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(batchMaxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form", h.log)
		return
	}

	var order batchOrderPart
	if err := json.Unmarshal([]byte(r.FormValue("order")), &order); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid order payload", h.log)
		return
	}

	form := r.MultipartForm
	files := form.File["images"]
	if len(files) != len(order.Items) {
		WriteError(w, http.StatusBadRequest, "Each item needs exactly one image", h.log)
		return
	}

	items := make([]*wholesale.Item, 0, len(order.Items))
	for i, meta := range order.Items {
		file, err := files[i].Open()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Unreadable image upload", h.log)
			return
		}

		image, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Unreadable image upload", h.log)
			return
		}

		items = append(items, &wholesale.Item{
			ID:           uuid.New().String(),
			Image:        image,
			Category:     meta.Category,
			Quantity:     meta.Quantity,
			QuantityType: meta.QuantityType,
			RawPrice:     meta.RawPrice,
			Profit:       meta.Profit,
		})
	}

	prepare := func(r io.Reader) (*imaging.Payload, error) {
		return imaging.Prepare(r, h.imageOpts)
	}

	batch := wholesale.NewBatch(
		order.ClientInfo,
		items,
		order.TotalWeight,
		order.ShipmentType,
		h.uploader,
		h.backend,
		prepare,
		wholesale.Options{
			Folder:            h.folder,
			RollbackOnFailure: h.rollback,
			Progress: func(uploaded, total int) {
				h.log.Info("batch upload progress", "uploaded", uploaded, "total", total)
			},
		},
		h.log,
	)

	created, err := batch.Run(r.Context(), h.token(r))
	if err != nil {
		h.writeBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "order": created}, h.log)
}

// writeBatchError maps workflow failures onto responses: validation is the
// caller's fault, item failures surface the failing position, submission
// failures relay the backend's verdict.
func (h *WholesaleHandler) writeBatchError(w http.ResponseWriter, err error) {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		WriteError(w, http.StatusBadRequest, validation.Error(), h.log)
		return
	}

	if errors.Is(err, wholesale.ErrCancelled) {
		WriteError(w, http.StatusConflict, "Order was cancelled", h.log)
		return
	}

	var item *wholesale.ItemError
	if errors.As(err, &item) {
		WriteError(w, http.StatusBadGateway, err.Error(), h.log)
		return
	}

	var submit *wholesale.SubmitError
	if errors.As(err, &submit) {
		writeUpstreamError(w, submit.Err, "Failed to create wholesale order", h.log)
		return
	}

	WriteError(w, http.StatusInternalServerError, "Failed to create wholesale order", h.log)
}
