// Package wholesale implements the batch order submission workflow: every
// item's image is prepared and uploaded strictly in order, then one
// aggregated order document is submitted to the wholesale backend.
package wholesale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/assets"
	"github.com/arjeninventory/admin-gateway/internal/imaging"
	"github.com/arjeninventory/admin-gateway/internal/models"
)

// State is the batch lifecycle position.
type State int

const (
	StateCollecting State = iota
	StateUploading
	StateSubmitting
	StateDone
	StateAborted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateUploading:
		return "uploading"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrCancelled is returned by Run when the batch was cancelled at a yield
// point between items.
var ErrCancelled = errors.New("batch cancelled")

// ItemError attributes a failure to one line item by its zero-based index.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index+1, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// SubmitError reports a rejected order submission after every upload
// succeeded. Uploaded assets are left in place; only an explicit Cancel
// cleans them up.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return fmt.Sprintf("submit order: %v", e.Err) }
func (e *SubmitError) Unwrap() error { return e.Err }

// Item is one line of the batch: a raw image plus priced metadata. The
// asset fields are filled in as the upload proceeds.
type Item struct {
	ID           string
	Image        []byte
	Category     string
	Quantity     float64
	QuantityType string
	RawPrice     float64
	Profit       float64

	AssetURL string
	AssetID  string
}

// Uploader stores and deletes remote assets.
type Uploader interface {
	Upload(ctx context.Context, req assets.UploadRequest) (*assets.UploadResult, error)
	Delete(ctx context.Context, fileID string) error
}

// OrderCreator submits the aggregated order to the wholesale backend.
type OrderCreator interface {
	CreateWholesaleOrder(ctx context.Context, token string, order models.WholesaleOrder) (*models.CreatedOrder, error)
}

// PrepareFunc converts raw image bytes into an upload payload. Wired to
// imaging.Prepare with the configured compression policy.
type PrepareFunc func(r io.Reader) (*imaging.Payload, error)

// Options tunes one batch run.
type Options struct {
	// Folder is the remote folder assets are stored under.
	Folder string
	// RollbackOnFailure deletes this batch's already-uploaded assets
	// when a later item fails. Off restores the historical
	// leave-orphans behavior.
	RollbackOnFailure bool
	// Progress, when set, is called after each successful item upload.
	Progress func(uploaded, total int)
}

// Batch is one wholesale order in flight. Not safe for concurrent Run
// calls; Cancel may be called from another goroutine and takes effect at
// the next yield point between items.
type Batch struct {
	client       models.ClientInfo
	items        []*Item
	totalWeight  float64
	shipmentType string

	uploader Uploader
	creator  OrderCreator
	prepare  PrepareFunc
	opts     Options
	log      *slog.Logger

	mu        sync.Mutex
	state     State
	cancelled bool
}

// NewBatch creates a batch in the collecting state.
func NewBatch(
	client models.ClientInfo,
	items []*Item,
	totalWeight float64,
	shipmentType string,
	uploader Uploader,
	creator OrderCreator,
	prepare PrepareFunc,
	opts Options,
	log *slog.Logger,
) *Batch {
	return &Batch{
		client:       client,
		items:        items,
		totalWeight:  totalWeight,
		shipmentType: shipmentType,
		uploader:     uploader,
		creator:      creator,
		prepare:      prepare,
		opts:         opts,
		log:          log,
		state:        StateCollecting,
	}
}

// State returns the current lifecycle position.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Validate checks every precondition for leaving the collecting state.
// A failure keeps the batch collecting; no network call is made.
func (b *Batch) Validate() error {
	if b.client.Name == "" {
		return &apperr.ValidationError{Field: "clientInfo.name", Message: "is required"}
	}
	if b.client.NID == "" {
		return &apperr.ValidationError{Field: "clientInfo.nid", Message: "is required"}
	}
	if b.client.Phone == "" {
		return &apperr.ValidationError{Field: "clientInfo.phone", Message: "is required"}
	}
	if b.client.Address == "" {
		return &apperr.ValidationError{Field: "clientInfo.address", Message: "is required"}
	}

	if len(b.items) == 0 {
		return &apperr.ValidationError{Message: "add at least one item"}
	}

	for i, item := range b.items {
		if len(item.Image) == 0 {
			return &apperr.ValidationError{Field: itemField(i, "image"), Message: "is required"}
		}
		if strings.TrimSpace(item.Category) == "" {
			return &apperr.ValidationError{Field: itemField(i, "category"), Message: "is required"}
		}
		if item.Quantity <= 0 {
			return &apperr.ValidationError{Field: itemField(i, "quantity"), Message: "must be positive"}
		}
		if item.RawPrice <= 0 {
			return &apperr.ValidationError{Field: itemField(i, "rawPrice"), Message: "must be positive"}
		}
		if item.Profit < 0 {
			return &apperr.ValidationError{Field: itemField(i, "profit"), Message: "must not be negative"}
		}
	}

	if b.totalWeight <= 0 {
		return &apperr.ValidationError{Field: "totalWeight", Message: "is required"}
	}
	if b.shipmentType == "" {
		return &apperr.ValidationError{Field: "shippmenttype", Message: "is required"}
	}

	return nil
}

// Run drives the batch to completion: sequential per-item prepare and
// upload, then exactly one order submission. The first upload failure
// aborts the batch and, when rollback is enabled, deletes the assets
// uploaded so far.
func (b *Batch) Run(ctx context.Context, token string) (*models.CreatedOrder, error) {
	b.mu.Lock()
	if b.state != StateCollecting {
		state := b.state
		b.mu.Unlock()
		return nil, fmt.Errorf("batch already %s", state)
	}

	if err := b.Validate(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.state = StateUploading
	b.mu.Unlock()

	total := len(b.items)

	for i, item := range b.items {
		if err := b.yield(ctx); err != nil {
			return nil, err
		}

		payload, err := b.prepare(bytes.NewReader(item.Image))
		if err != nil {
			return nil, b.abort(ctx, i, err)
		}

		result, err := b.uploader.Upload(ctx, assets.UploadRequest{
			File:     payload.Base64,
			FileName: uuid.New().String() + ".jpg",
			Folder:   b.opts.Folder,
		})
		if err != nil {
			return nil, b.abort(ctx, i, err)
		}

		// Asset fields are shared with a possible concurrent Cancel.
		b.mu.Lock()
		item.AssetURL = result.URL
		item.AssetID = result.FileID
		b.mu.Unlock()

		b.log.Info("batch item uploaded",
			"item", i+1,
			"total", total,
			"file_id", result.FileID,
		)

		if b.opts.Progress != nil {
			b.opts.Progress(i+1, total)
		}
	}

	// The final cancellation check and the move to submitting are one
	// transition: once submitting, Cancel is a no-op and the item fields
	// are ours alone.
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		b.deleteUploaded(ctx)
		return nil, ErrCancelled
	}
	if ctx.Err() != nil {
		b.cancelled = true
		b.state = StateCancelled
		b.mu.Unlock()
		b.deleteUploaded(ctx)
		return nil, ErrCancelled
	}
	b.state = StateSubmitting
	b.mu.Unlock()

	order, err := b.buildOrder()
	if err != nil {
		b.setState(StateAborted)
		return nil, err
	}

	created, err := b.creator.CreateWholesaleOrder(ctx, token, *order)
	if err != nil {
		// Submission failures leave assets in place; cleanup is only
		// ever explicit via Cancel.
		b.setState(StateAborted)
		return nil, &SubmitError{Err: err}
	}

	b.setState(StateDone)
	b.log.Info("wholesale order created", "order_id", created.ID, "items", total)

	return created, nil
}

// Cancel deletes every asset this batch has uploaded so far and discards
// the in-memory state. Effective only at yield points; it cannot
// interrupt an in-flight upload. Deletions are best effort.
func (b *Batch) Cancel(ctx context.Context) {
	b.mu.Lock()
	if b.state == StateDone || b.state == StateSubmitting {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	b.state = StateCancelled
	b.mu.Unlock()

	b.deleteUploaded(ctx)
}

// buildOrder aggregates finalized items into the single order document.
// Every item must carry an asset URL and identifier by now.
func (b *Batch) buildOrder() (*models.WholesaleOrder, error) {
	products := make([]models.WholesaleProduct, 0, len(b.items))

	for i, item := range b.items {
		if item.AssetURL == "" || item.AssetID == "" {
			return nil, fmt.Errorf("item %d has no uploaded asset", i+1)
		}

		products = append(products, models.WholesaleProduct{
			ProductNumber: i + 1,
			ImageURL:      item.AssetURL,
			FileID:        item.AssetID,
			Category:      FormatCategory(item.Category),
			Quantity:      item.Quantity,
			QuantityType:  item.QuantityType,
			RawPrice:      item.RawPrice,
			Profit:        item.Profit,
		})
	}

	return &models.WholesaleOrder{
		ClientInfo:   b.client,
		Products:     products,
		TotalWeight:  b.totalWeight,
		ShipmentType: b.shipmentType,
	}, nil
}

// abort records the failing item, optionally rolls back earlier uploads,
// and moves the batch to the aborted state.
func (b *Batch) abort(ctx context.Context, index int, cause error) error {
	b.log.Error("batch item failed",
		"item", index+1,
		"total", len(b.items),
		"error", cause,
	)

	if b.opts.RollbackOnFailure {
		b.deleteUploaded(ctx)
	}

	b.setState(StateAborted)
	return &ItemError{Index: index, Err: cause}
}

// deleteUploaded issues one delete per item that completed its upload.
// Failures are logged and skipped. Cleanup must outlive a cancelled
// caller context. Asset identifiers are snapshotted under the lock so the
// network calls run without it.
func (b *Batch) deleteUploaded(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	type uploaded struct {
		index  int
		fileID string
	}

	b.mu.Lock()
	pending := make([]uploaded, 0, len(b.items))
	for i, item := range b.items {
		if item.AssetID != "" {
			pending = append(pending, uploaded{index: i, fileID: item.AssetID})
		}
	}
	b.mu.Unlock()

	for _, u := range pending {
		if err := b.uploader.Delete(ctx, u.fileID); err != nil {
			b.log.Warn("asset cleanup failed",
				"item", u.index+1,
				"file_id", u.fileID,
				"error", err,
			)
			continue
		}

		b.mu.Lock()
		b.items[u.index].AssetURL = ""
		b.items[u.index].AssetID = ""
		b.mu.Unlock()
	}
}

// yield is the cancellation checkpoint between items. A dropped caller
// context counts as a cancel. Cleanup always re-runs here: a Cancel that
// fired during the previous item's in-flight upload swept before that
// item's asset identifier existed, so its asset is only caught now.
func (b *Batch) yield(ctx context.Context) error {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()

		b.deleteUploaded(ctx)
		return ErrCancelled
	}

	if ctx.Err() != nil {
		b.cancelled = true
		b.state = StateCancelled
		b.mu.Unlock()

		b.deleteUploaded(ctx)
		return ErrCancelled
	}
	b.mu.Unlock()

	return nil
}

func (b *Batch) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

// FormatCategory normalizes a category label: trimmed, first letter
// upper-cased, rest lower-cased. The first letter may be any rune, not
// just ASCII.
func FormatCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(first)) + strings.ToLower(trimmed[size:])
}
