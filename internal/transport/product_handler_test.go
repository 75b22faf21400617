package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rug-market/internal/domain"
	"rug-market/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productHandlerFixture struct {
	handler     *ProductHandler
	productRepo *mockProductRepository
}

func newProductHandlerFixture() *productHandlerFixture {
	productRepo := newMockProductRepository()
	catalogService := service.NewCatalogService(productRepo)
	return &productHandlerFixture{
		handler:     NewProductHandler(catalogService, zap.NewNop()),
		productRepo: productRepo,
	}
}

func TestProductHandler_ListApprovedHidesUnlistable(t *testing.T) {
	fixture := newProductHandlerFixture()

	visible := listableProduct(199.00, 3)
	fixture.productRepo.products[visible.ID] = visible

	draft := listableProduct(99.00, 3)
	draft.Status = domain.ProductStatusDraft
	fixture.productRepo.products[draft.ID] = draft

	deleted := listableProduct(149.00, 3)
	deleted.IsDeleted = true
	fixture.productRepo.products[deleted.ID] = deleted

	req := httptest.NewRequest(http.MethodGet, "/api/products/approved", nil)
	w := httptest.NewRecorder()
	fixture.handler.ListApproved(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var summaries []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&summaries); err != nil {
		t.Fatalf("could not decode listing: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected only the approved product, got %d entries", len(summaries))
	}
	if summaries[0]["id"] != visible.ID.String() {
		t.Errorf("expected product %s in listing, got %v", visible.ID, summaries[0]["id"])
	}
}

func TestProductHandler_GetProductNotFoundForDraft(t *testing.T) {
	fixture := newProductHandlerFixture()

	draft := listableProduct(99.00, 3)
	draft.Status = domain.ProductStatusDraft
	fixture.productRepo.products[draft.ID] = draft

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+draft.ID.String(), nil)
	req = withURLParam(req, "productID", draft.ID.String())
	w := httptest.NewRecorder()
	fixture.handler.GetProduct(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for draft product, got %d", w.Code)
	}
}

func TestProductHandler_AddCommentValidatesRating(t *testing.T) {
	fixture := newProductHandlerFixture()
	product := listableProduct(199.00, 3)
	fixture.productRepo.products[product.ID] = product
	userID := uuid.New()

	postComment := func(text string, rating int) *httptest.ResponseRecorder {
		body, _ := json.Marshal(CommentRequest{Text: text, Rating: rating})
		req := httptest.NewRequest(http.MethodPost, "/api/products/"+product.ID.String()+"/comments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = authedRequest(req, userID, "user")
		req = withURLParam(req, "productID", product.ID.String())
		w := httptest.NewRecorder()
		fixture.handler.AddComment(w, req)
		return w
	}

	if w := postComment("Beautiful weave, arrived quickly.", 5); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid comment, got %d: %s", w.Code, w.Body.String())
	}
	if w := postComment("Too good to be true", 6); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating above 5, got %d", w.Code)
	}
	if w := postComment("", 3); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", w.Code)
	}

	detailReq := httptest.NewRequest(http.MethodGet, "/api/products/"+product.ID.String(), nil)
	detailReq = withURLParam(detailReq, "productID", product.ID.String())
	detailW := httptest.NewRecorder()
	fixture.handler.GetProduct(detailW, detailReq)

	if detailW.Code != http.StatusOK {
		t.Fatalf("expected 200 from detail, got %d", detailW.Code)
	}
	var detail struct {
		Comments []domain.Comment `json:"comments"`
	}
	if err := json.NewDecoder(detailW.Body).Decode(&detail); err != nil {
		t.Fatalf("could not decode detail: %v", err)
	}
	if len(detail.Comments) != 1 {
		t.Fatalf("expected exactly the valid comment, got %d", len(detail.Comments))
	}
}
