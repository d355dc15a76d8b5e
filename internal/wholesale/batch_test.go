package wholesale

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/assets"
	"github.com/arjeninventory/admin-gateway/internal/imaging"
	"github.com/arjeninventory/admin-gateway/internal/models"
	"github.com/arjeninventory/admin-gateway/pkg/logger"
)

type fakeUploader struct {
	uploads   []assets.UploadRequest
	deletes   []string
	failAt    int // 1-based upload call that fails; 0 means never
	deleteErr error
}

func (f *fakeUploader) Upload(ctx context.Context, req assets.UploadRequest) (*assets.UploadResult, error) {
	call := len(f.uploads) + 1
	if f.failAt != 0 && call == f.failAt {
		return nil, &assets.UploadError{Status: 500, Message: "boom"}
	}
	f.uploads = append(f.uploads, req)
	return &assets.UploadResult{
		URL:    fmt.Sprintf("https://ik.example.com/%d.jpg", call),
		FileID: fmt.Sprintf("file-%d", call),
	}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, fileID string) error {
	f.deletes = append(f.deletes, fileID)
	return f.deleteErr
}

type fakeCreator struct {
	orders []models.WholesaleOrder
	err    error
}

func (f *fakeCreator) CreateWholesaleOrder(ctx context.Context, token string, order models.WholesaleOrder) (*models.CreatedOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.orders = append(f.orders, order)
	return &models.CreatedOrder{ID: "order-1"}, nil
}

func stubPrepare(r io.Reader) (*imaging.Payload, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &imaging.Payload{
		Base64: base64.StdEncoding.EncodeToString(raw),
		Width:  100,
		Height: 100,
		Size:   len(raw),
	}, nil
}

func validClient() models.ClientInfo {
	return models.ClientInfo{Name: "Client", NID: "1234", Phone: "555", Address: "Street 1"}
}

func validItems(n int) []*Item {
	items := make([]*Item, n)
	for i := range items {
		items[i] = &Item{
			ID:           fmt.Sprintf("item-%d", i+1),
			Image:        []byte(fmt.Sprintf("image-bytes-%d", i+1)),
			Category:     "bags",
			Quantity:     float64(i + 1),
			QuantityType: "piece",
			RawPrice:     10,
			Profit:       2,
		}
	}
	return items
}

func newBatch(items []*Item, up Uploader, cr *fakeCreator, opts Options) *Batch {
	if opts.Folder == "" {
		opts.Folder = "/wholesale-products"
	}
	return NewBatch(validClient(), items, 12.5, "air", up, cr, stubPrepare, opts, logger.New("error"))
}

func TestBatch_Run_AllSucceed(t *testing.T) {
	up := &fakeUploader{}
	cr := &fakeCreator{}
	var progress []int
	batch := newBatch(validItems(3), up, cr, Options{
		RollbackOnFailure: true,
		Progress:          func(uploaded, total int) { progress = append(progress, uploaded) },
	})

	created, err := batch.Run(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if created.ID != "order-1" {
		t.Errorf("order ID = %q", created.ID)
	}
	if batch.State() != StateDone {
		t.Errorf("state = %s, want done", batch.State())
	}

	if len(cr.orders) != 1 {
		t.Fatalf("order-create calls = %d, want exactly 1", len(cr.orders))
	}

	order := cr.orders[0]
	if len(order.Products) != 3 {
		t.Fatalf("products = %d, want 3", len(order.Products))
	}

	for i, p := range order.Products {
		if p.ProductNumber != i+1 {
			t.Errorf("products[%d].ProductNumber = %d, want %d", i, p.ProductNumber, i+1)
		}
		wantURL := fmt.Sprintf("https://ik.example.com/%d.jpg", i+1)
		if p.ImageURL != wantURL {
			t.Errorf("products[%d].ImageURL = %q, want %q", i, p.ImageURL, wantURL)
		}
		wantID := fmt.Sprintf("file-%d", i+1)
		if p.FileID != wantID {
			t.Errorf("products[%d].FileID = %q, want %q", i, p.FileID, wantID)
		}
		if p.Category != "Bags" {
			t.Errorf("products[%d].Category = %q, want formatted %q", i, p.Category, "Bags")
		}
	}

	if order.TotalWeight != 12.5 || order.ShipmentType != "air" {
		t.Errorf("order aggregate = %+v", order)
	}

	if len(progress) != 3 || progress[0] != 1 || progress[2] != 3 {
		t.Errorf("progress callbacks = %v, want [1 2 3]", progress)
	}

	if len(up.deletes) != 0 {
		t.Errorf("deletes = %v, want none on success", up.deletes)
	}
}

func TestBatch_Run_MidBatchFailure(t *testing.T) {
	tests := []struct {
		name        string
		rollback    bool
		wantDeletes []string
	}{
		{"rollback enabled deletes item 1", true, []string{"file-1"}},
		{"rollback disabled leaves orphan", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{failAt: 2}
			cr := &fakeCreator{}
			batch := newBatch(validItems(3), up, cr, Options{RollbackOnFailure: tt.rollback})

			_, err := batch.Run(context.Background(), "tok")
			if err == nil {
				t.Fatal("Run() expected error")
			}

			var itemErr *ItemError
			if !errors.As(err, &itemErr) {
				t.Fatalf("error = %v, want ItemError", err)
			}
			if itemErr.Index != 1 {
				t.Errorf("failing index = %d, want 1 (second item)", itemErr.Index)
			}

			if len(cr.orders) != 0 {
				t.Errorf("order-create calls = %d, want 0 on upload failure", len(cr.orders))
			}

			// Item 3 must never be attempted.
			if len(up.uploads) != 1 {
				t.Errorf("upload attempts = %d, want 1 (items after the failure never start)", len(up.uploads))
			}

			if batch.State() != StateAborted {
				t.Errorf("state = %s, want aborted", batch.State())
			}

			if fmt.Sprint(up.deletes) != fmt.Sprint(tt.wantDeletes) {
				t.Errorf("deletes = %v, want %v", up.deletes, tt.wantDeletes)
			}
		})
	}
}

func TestBatch_Run_SubmitFailureKeepsAssets(t *testing.T) {
	up := &fakeUploader{}
	cr := &fakeCreator{err: &apperr.UpstreamError{Status: 500, Message: "backend down"}}
	batch := newBatch(validItems(2), up, cr, Options{RollbackOnFailure: true})

	_, err := batch.Run(context.Background(), "tok")

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("error = %v, want SubmitError", err)
	}

	// Submission failure performs no automatic cleanup.
	if len(up.deletes) != 0 {
		t.Errorf("deletes = %v, want none after submit failure", up.deletes)
	}
	if batch.State() != StateAborted {
		t.Errorf("state = %s, want aborted", batch.State())
	}
}

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(items []*Item, b *Batch)
		items     int
		wantField string
	}{
		{"no items", func(items []*Item, b *Batch) {}, 0, ""},
		{"missing category", func(items []*Item, b *Batch) { items[0].Category = " " }, 2, "items[0].category"},
		{"zero quantity", func(items []*Item, b *Batch) { items[1].Quantity = 0 }, 2, "items[1].quantity"},
		{"zero raw price", func(items []*Item, b *Batch) { items[0].RawPrice = 0 }, 2, "items[0].rawPrice"},
		{"negative profit", func(items []*Item, b *Batch) { items[0].Profit = -1 }, 2, "items[0].profit"},
		{"missing image", func(items []*Item, b *Batch) { items[0].Image = nil }, 2, "items[0].image"},
		{"missing weight", func(items []*Item, b *Batch) { b.totalWeight = 0 }, 2, "totalWeight"},
		{"missing shipment type", func(items []*Item, b *Batch) { b.shipmentType = "" }, 2, "shippmenttype"},
		{"missing client name", func(items []*Item, b *Batch) { b.client.Name = "" }, 2, "clientInfo.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			cr := &fakeCreator{}
			items := validItems(tt.items)
			batch := newBatch(items, up, cr, Options{})
			tt.mutate(items, batch)

			_, err := batch.Run(context.Background(), "tok")

			var validErr *apperr.ValidationError
			if !errors.As(err, &validErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if tt.wantField != "" && validErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", validErr.Field, tt.wantField)
			}

			// Validation failures keep collecting and touch no network.
			if batch.State() != StateCollecting {
				t.Errorf("state = %s, want collecting", batch.State())
			}
			if len(up.uploads) != 0 || len(cr.orders) != 0 {
				t.Error("validation failure must make no network calls")
			}
		})
	}
}

func TestBatch_Cancel(t *testing.T) {
	up := &fakeUploader{}
	cr := &fakeCreator{}
	items := validItems(3)
	batch := newBatch(items, up, cr, Options{})

	// Simulate two items already uploaded, then a cancel.
	items[0].AssetID = "file-a"
	items[0].AssetURL = "https://ik.example.com/a.jpg"
	items[1].AssetID = "file-b"
	items[1].AssetURL = "https://ik.example.com/b.jpg"

	batch.Cancel(context.Background())

	if batch.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", batch.State())
	}

	// Exactly one delete per uploaded item, none for item 3.
	if len(up.deletes) != 2 || up.deletes[0] != "file-a" || up.deletes[1] != "file-b" {
		t.Errorf("deletes = %v, want [file-a file-b]", up.deletes)
	}

	// A cancelled batch refuses to run.
	if _, err := batch.Run(context.Background(), "tok"); err == nil {
		t.Error("Run() after Cancel should fail")
	}
}

func TestBatch_Cancel_SoftDeleteFailures(t *testing.T) {
	up := &fakeUploader{deleteErr: errors.New("delete failed")}
	cr := &fakeCreator{}
	items := validItems(2)
	items[0].AssetID = "file-a"
	items[1].AssetID = "file-b"

	batch := newBatch(items, up, cr, Options{})
	batch.Cancel(context.Background())

	// Both deletions attempted despite the first failing.
	if len(up.deletes) != 2 {
		t.Errorf("delete attempts = %d, want 2", len(up.deletes))
	}
	if batch.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", batch.State())
	}
}

// blockingUploader parks the first upload until released, so a test can
// cancel the batch while that upload is in flight.
type blockingUploader struct {
	fakeUploader
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (u *blockingUploader) Upload(ctx context.Context, req assets.UploadRequest) (*assets.UploadResult, error) {
	u.once.Do(func() {
		close(u.started)
		<-u.release
	})
	return u.fakeUploader.Upload(ctx, req)
}

func TestBatch_CancelDuringInFlightUpload(t *testing.T) {
	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	cr := &fakeCreator{}
	batch := newBatch(validItems(2), up, cr, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := batch.Run(context.Background(), "tok")
		done <- err
	}()

	// Cancel lands while item 1's upload is still in flight; its sweep
	// finds nothing to delete yet.
	<-up.started
	batch.Cancel(context.Background())
	close(up.release)

	if err := <-done; !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}

	// Item 1's upload completed after the cancel sweep; its asset must
	// still be cleaned up, and item 2 never started.
	if len(up.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.uploads))
	}
	if len(up.deletes) != 1 || up.deletes[0] != "file-1" {
		t.Errorf("deletes = %v, want the in-flight item's asset cleaned up", up.deletes)
	}
	if len(cr.orders) != 0 {
		t.Error("no order may be created for a cancelled batch")
	}
	if batch.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", batch.State())
	}
}

func TestBatch_Run_DroppedContextCleansUp(t *testing.T) {
	up := &fakeUploader{}
	cr := &fakeCreator{}
	batch := newBatch(validItems(2), up, cr, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.Run(ctx, "tok")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}
	if batch.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", batch.State())
	}
	if len(up.uploads) != 0 {
		t.Errorf("uploads = %d, want 0 when the context is already gone", len(up.uploads))
	}
	if len(cr.orders) != 0 {
		t.Error("no order may be created for a cancelled batch")
	}
}

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bags", "Bags"},
		{"  ELECTRONICS  ", "Electronics"},
		{"mixed Case", "Mixed case"},
		{"électronique", "Électronique"},
		{"ürünler", "Ürünler"},
		{"日用品", "日用品"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := FormatCategory(tt.in); got != tt.want {
			t.Errorf("FormatCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
