package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rug-market/internal/domain"
	"rug-market/internal/middleware"
	"rug-market/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// In-memory repositories backing the handlers under test.

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	comments map[uuid.UUID][]domain.Comment
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		comments: make(map[uuid.UUID][]domain.Comment),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*repository.ProductDetail, error) {
	product, exists := m.products[id]
	if !exists || !product.Listable() {
		return nil, repository.ErrProductNotFound
	}
	return &repository.ProductDetail{
		Product:      *product,
		ProviderName: "Test Provider",
		Comments:     m.comments[id],
	}, nil
}

func (m *mockProductRepository) ListApproved(ctx context.Context) ([]*repository.ProductSummary, error) {
	var summaries []*repository.ProductSummary
	for _, product := range m.products {
		if !product.Listable() {
			continue
		}
		summaries = append(summaries, &repository.ProductSummary{
			ID:           product.ID,
			Name:         product.Name,
			Price:        product.Price,
			ProviderName: "Test Provider",
		})
	}
	return summaries, nil
}

func (m *mockProductRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	m.comments[comment.ProductID] = append(m.comments[comment.ProductID], *comment)
	return nil
}

type mockCartRepository struct {
	items    map[string]*domain.CartItem
	products *mockProductRepository
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{
		items:    make(map[string]*domain.CartItem),
		products: products,
	}
}

func cartKey(userID, productID uuid.UUID, size, color string) string {
	return fmt.Sprintf("%s|%s|%s|%s", userID, productID, size, color)
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	key := cartKey(item.UserID, item.ProductID, item.Size, item.Color)
	if existing, ok := m.items[key]; ok {
		existing.Quantity += item.Quantity
		return nil
	}
	copied := *item
	m.items[key] = &copied
	return nil
}

func (m *mockCartRepository) FindLine(ctx context.Context, userID, productID uuid.UUID, size, color string) (*domain.CartItem, error) {
	item, ok := m.items[cartKey(userID, productID, size, color)]
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	return item, nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) error {
	matched := false
	for _, item := range m.items {
		if item.UserID != userID || item.ProductID != productID {
			continue
		}
		if size != "" && item.Size != size {
			continue
		}
		if color != "" && item.Color != color {
			continue
		}
		item.Quantity = quantity
		matched = true
	}
	if !matched {
		return repository.ErrCartItemNotFound
	}
	return nil
}

func (m *mockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	for key, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		product, ok := m.products.products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{
			CartItem:    *item,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Stock:       product.Stock,
			ProviderID:  product.ProviderID,
		})
	}
	return lines, nil
}

type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	cart     *mockCartRepository
	products *mockProductRepository
}

func newMockOrderRepository(cart *mockCartRepository, products *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		cart:     cart,
		products: products,
	}
}

func (m *mockOrderRepository) CreateFromCart(ctx context.Context, userID uuid.UUID, shipping domain.ShippingAddress, method domain.PaymentMethod, notes string) (*domain.Order, error) {
	lines, err := m.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, repository.ErrEmptyCart
	}

	// Variant lines draw from the same stock, so validation compares the
	// per-product total, not each line on its own.
	required := make(map[uuid.UUID]int)
	for _, line := range lines {
		required[line.ProductID] += line.Quantity
	}
	for _, line := range lines {
		product, ok := m.products.products[line.ProductID]
		if !ok || !product.Listable() {
			return nil, repository.ErrProductNotFound
		}
		if required[line.ProductID] > product.Stock {
			return nil, &repository.OutOfStockError{
				ProductID: line.ProductID,
				Requested: required[line.ProductID],
				Available: product.Stock,
			}
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Shipping:      shipping,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusProcessing,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, line := range lines {
		product := m.products.products[line.ProductID]
		item := domain.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  line.ProductID,
			ProviderID: product.ProviderID,
			Quantity:   line.Quantity,
			Price:      product.Price,
			Size:       line.Size,
			Color:      line.Color,
		}
		order.Items = append(order.Items, item)
		order.TotalAmount += item.Subtotal()
		product.Stock -= line.Quantity
	}

	for key, item := range m.cart.items {
		if item.UserID == userID {
			delete(m.cart.items, key)
		}
	}

	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.OrderStatus = status
	return nil
}

type mockPaymentRepository struct {
	payments map[uuid.UUID]*domain.Payment
	byOrder  map[uuid.UUID]uuid.UUID
	orders   *mockOrderRepository
}

func newMockPaymentRepository(orders *mockOrderRepository) *mockPaymentRepository {
	return &mockPaymentRepository{
		payments: make(map[uuid.UUID]*domain.Payment),
		byOrder:  make(map[uuid.UUID]uuid.UUID),
		orders:   orders,
	}
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if _, exists := m.byOrder[payment.OrderID]; exists {
		return repository.ErrPaymentAlreadyExists
	}
	copied := *payment
	m.payments[payment.ID] = &copied
	m.byOrder[payment.OrderID] = payment.ID
	return nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, exists := m.payments[id]
	if !exists {
		return nil, repository.ErrPaymentNotFound
	}
	return payment, nil
}

func (m *mockPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	paymentID, exists := m.byOrder[orderID]
	if !exists {
		return nil, repository.ErrPaymentNotFound
	}
	return m.payments[paymentID], nil
}

// UpdateStatus mirrors the new status onto the parent order, matching the
// SQL repository's single-transaction update.
func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	payment, exists := m.payments[id]
	if !exists {
		return repository.ErrPaymentNotFound
	}
	payment.Status = status
	if order, ok := m.orders.orders[payment.OrderID]; ok {
		order.PaymentStatus = status
	}
	return nil
}

// withURLParam injects a chi URL parameter the way the router would
func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

// authedRequest stamps the auth middleware's context values onto a request,
// the way AuthMiddleware would after verifying a bearer token
func authedRequest(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
	return req.WithContext(ctx)
}

func listableProduct(price float64, stock int) *domain.Product {
	now := time.Now()
	return &domain.Product{
		ID:          uuid.New(),
		Name:        "Test Rug",
		Description: "A hand-woven test rug",
		Price:       price,
		Stock:       stock,
		Status:      domain.ProductStatusApproved,
		ProviderID:  uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
