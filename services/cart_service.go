package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

const (
	maxLineQuantity = 99
	idempotencyTTL  = 24 * time.Hour
)

// CartConflictError is returned when the caller's cart version is stale. Cart is the
// current state the client should reconcile against.
type CartConflictError struct {
	Cart *models.CartView
}

func (e *CartConflictError) Error() string {
	return apperrors.ErrVersionMismatch.Message
}

func (e *CartConflictError) Unwrap() error {
	return apperrors.ErrVersionMismatch
}

type CartService interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.CartView, error)
	AddItem(ctx context.Context, accountID uuid.UUID, req *models.AddCartItemRequest) (*models.CartView, error)
	// UpdateItem sets a line's quantity; zero removes the line.
	UpdateItem(ctx context.Context, accountID, bookID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartView, error)
	RemoveItem(ctx context.Context, accountID, bookID uuid.UUID, version *int64) (*models.CartView, error)
	Clear(ctx context.Context, accountID uuid.UUID) (*models.CartView, error)
	// Checkout turns the cart into a pending order. replayed is true when
	// idempotencyKey matched an earlier checkout and that order was returned.
	Checkout(ctx context.Context, accountID uuid.UUID, idempotencyKey string, req *models.CheckoutRequest) (order *models.Order, replayed bool, err error)
}

type cartService struct {
	carts      repository.CartStore
	books      repository.BookRepository
	stockRepo  repository.StockRepository
	stock      StockService
	promotions PromotionService
	orders     repository.OrderRepository
	guard      ItemGuard
	publisher  EventPublisher
	metrics    aws_pkg.Recorder
	logger     *zap.Logger
}

func NewCartService(
	carts repository.CartStore,
	books repository.BookRepository,
	stockRepo repository.StockRepository,
	stock StockService,
	promotions PromotionService,
	orders repository.OrderRepository,
	guard ItemGuard,
	publisher EventPublisher,
	metrics aws_pkg.Recorder,
	logger *zap.Logger,
) CartService {
	return &cartService{
		carts:      carts,
		books:      books,
		stockRepo:  stockRepo,
		stock:      stock,
		promotions: promotions,
		orders:     orders,
		guard:      guard,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *cartService) Get(ctx context.Context, accountID uuid.UUID) (*models.CartView, error) {
	cart, err := s.carts.Get(ctx, accountID)
	if err != nil {
		return nil, internal(s.logger, "Failed to load cart", err)
	}
	view, removed, err := s.view(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return view, nil
	}

	pruned, err := s.carts.Update(ctx, accountID, nil, func(c *models.Cart) error {
		for _, id := range removed {
			c.Remove(id)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to prune unavailable cart lines", zap.String("account_id", accountID.String()), zap.Error(err))
		return view, nil
	}
	view.Version = pruned.Version
	view.UpdatedAt = pruned.UpdatedAt
	return view, nil
}

// view prices cart lines from the live catalog. Lines whose book is gone or hidden
// are left out and returned as removed.
func (s *cartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, []uuid.UUID, error) {
	view := &models.CartView{
		Items:     []models.CartLine{},
		Version:   cart.Version,
		UpdatedAt: cart.UpdatedAt,
	}
	if len(cart.Items) == 0 {
		return view, nil, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	keys := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.BookID)
		keys = append(keys, item.BookID.String())
	}
	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, internal(s.logger, "Failed to load cart books", err)
	}
	byID := make(map[uuid.UUID]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}
	levels, err := s.stockRepo.GetMany(ctx, keys)
	if err != nil {
		s.logger.Warn("Failed to read cart stock levels", zap.Error(err))
		levels = map[string]models.Stock{}
	}

	for _, item := range cart.Items {
		book := byID[item.BookID]
		if !book.Purchasable() {
			view.Removed = append(view.Removed, item.BookID)
			continue
		}
		line := models.CartLine{
			CartItem:  item,
			Slug:      book.Slug,
			CoverURL:  book.CoverURL,
			Available: levels[item.BookID.String()].Available,
		}
		line.Title = book.Title
		line.UnitPrice = book.Price
		line.LineTotal = round2(book.Price * float64(item.Quantity))
		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
		view.Subtotal += line.LineTotal
	}
	view.Subtotal = round2(view.Subtotal)
	return view, view.Removed, nil
}

// write runs a cart mutation and renders the result, translating store conflicts.
func (s *cartService) write(ctx context.Context, accountID uuid.UUID, version *int64, fn func(*models.Cart) error) (*models.CartView, error) {
	cart, err := s.carts.Update(ctx, accountID, version, fn)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartVersionConflict) && cart != nil:
			current, _, viewErr := s.view(ctx, cart)
			if viewErr != nil {
				return nil, viewErr
			}
			return nil, &CartConflictError{Cart: current}
		case errors.Is(err, repository.ErrCartVersionConflict), errors.Is(err, repository.ErrCartContended):
			return nil, apperrors.ErrVersionMismatch
		}
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, internal(s.logger, "Failed to update cart", err, zap.String("account_id", accountID.String()))
	}
	view, _, err := s.view(ctx, cart)
	return view, err
}

func (s *cartService) purchasableBook(ctx context.Context, bookID uuid.UUID) (*models.Book, int, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, 0, notFound("Book")
		}
		return nil, 0, internal(s.logger, "Failed to load book", err)
	}
	if !book.Purchasable() {
		return nil, 0, notFound("Book")
	}
	stock, err := s.stockRepo.Get(ctx, bookID.String())
	if err != nil {
		if repository.IsNotFound(err) {
			return book, 0, nil
		}
		return nil, 0, internal(s.logger, "Failed to read stock", err)
	}
	return book, stock.Available, nil
}

func (s *cartService) AddItem(ctx context.Context, accountID uuid.UUID, req *models.AddCartItemRequest) (*models.CartView, error) {
	if req.Quantity < 1 {
		return nil, validationField("quantity", "Quantity must be at least 1")
	}
	release, err := s.guard.Acquire(ctx, GuardCart, accountID, req.BookID)
	if err != nil {
		return nil, err
	}
	defer release()

	book, available, err := s.purchasableBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}

	return s.write(ctx, accountID, req.Version, func(cart *models.Cart) error {
		quantity := req.Quantity
		i := cart.Find(book.ID)
		if i >= 0 {
			quantity += cart.Items[i].Quantity
		}
		if quantity > maxLineQuantity {
			return validationField("quantity", "A cart line cannot exceed 99 copies")
		}
		if quantity > available {
			return insufficientStock(book.ID)
		}
		if i < 0 {
			cart.Items = append(cart.Items, models.CartItem{BookID: book.ID, AddedAt: time.Now().UTC()})
			i = len(cart.Items) - 1
		}
		cart.Items[i].Quantity = quantity
		cart.Items[i].Title = book.Title
		cart.Items[i].UnitPrice = book.Price
		return nil
	})
}

func (s *cartService) UpdateItem(ctx context.Context, accountID, bookID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartView, error) {
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, accountID, bookID, req.Version)
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		return nil, validationField("quantity", "Quantity must be between 0 and 99")
	}
	release, err := s.guard.Acquire(ctx, GuardCart, accountID, bookID)
	if err != nil {
		return nil, err
	}
	defer release()

	book, available, err := s.purchasableBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return s.write(ctx, accountID, req.Version, func(cart *models.Cart) error {
		i := cart.Find(bookID)
		if i < 0 {
			return notFound("Cart item")
		}
		if req.Quantity > available {
			return insufficientStock(bookID)
		}
		cart.Items[i].Quantity = req.Quantity
		cart.Items[i].Title = book.Title
		cart.Items[i].UnitPrice = book.Price
		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, accountID, bookID uuid.UUID, version *int64) (*models.CartView, error) {
	release, err := s.guard.Acquire(ctx, GuardCart, accountID, bookID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.write(ctx, accountID, version, func(cart *models.Cart) error {
		if !cart.Remove(bookID) {
			return notFound("Cart item")
		}
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, accountID uuid.UUID) (*models.CartView, error) {
	return s.write(ctx, accountID, nil, func(cart *models.Cart) error {
		cart.Items = []models.CartItem{}
		return nil
	})
}

// Checkout reserves stock for every line, redeems the promotion and records a pending
// order. Any failure after a reservation releases what was taken.
func (s *cartService) Checkout(ctx context.Context, accountID uuid.UUID, idempotencyKey string, req *models.CheckoutRequest) (order *models.Order, replayed bool, err error) {
	log := s.logger.With(zap.String("account_id", accountID.String()))

	if idempotencyKey != "" {
		previous, lookupErr := s.previousCheckout(ctx, accountID, idempotencyKey)
		if lookupErr != nil || previous != nil {
			return previous, previous != nil, lookupErr
		}
		claimed, claimErr := s.carts.ClaimIdempotency(ctx, accountID, idempotencyKey, idempotencyTTL)
		if claimErr != nil {
			return nil, false, internal(log, "Failed to claim idempotency key", claimErr)
		}
		if !claimed {
			return nil, false, apperrors.New(http.StatusConflict, "A checkout with this key is already in progress", nil)
		}
		defer func() {
			if err != nil {
				if relErr := s.carts.ReleaseIdempotency(context.WithoutCancel(ctx), accountID, idempotencyKey); relErr != nil {
					log.Warn("Failed to release idempotency key", zap.Error(relErr))
				}
			}
		}()
	}

	cart, err := s.carts.Get(ctx, accountID)
	if err != nil {
		return nil, false, internal(log, "Failed to load cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, false, apperrors.ErrEmptyCart
	}

	order, err = s.priceOrder(ctx, accountID, cart)
	if err != nil {
		return nil, false, err
	}
	order.IdempotencyKey = idempotencyKey

	code := ""
	if req != nil {
		code = normalizeCode(req.PromotionCode)
	}
	if code != "" {
		quote, err := s.promotions.Quote(ctx, code, order.Subtotal)
		if err != nil {
			return nil, false, err
		}
		if !quote.Valid {
			return nil, false, validationField("promotion_code", quote.Message)
		}
		order.PromotionCode = code
		order.Discount = quote.Discount
		order.Total = quote.Total
	}

	lines := order.Lines()
	if err := s.stock.ReserveLines(ctx, order.ID, lines); err != nil {
		return nil, false, err
	}
	// past this point every failure must give the reservations back
	releaseAll := func() {
		if relErr := s.stock.ReleaseLines(context.WithoutCancel(ctx), order.ID, lines); relErr != nil {
			log.Error("Failed to release reservations after checkout failure", zap.String("order_id", order.ID.String()), zap.Error(relErr))
		}
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutRollbacks, nil)
	}

	if code != "" {
		if err := s.promotions.Redeem(ctx, code); err != nil {
			releaseAll()
			return nil, false, err
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		releaseAll()
		if code != "" {
			s.promotions.Unredeem(context.WithoutCancel(ctx), code)
		}
		if idempotencyKey != "" && repository.IsUniqueViolation(err) {
			// a concurrent request with the same key won the insert
			existing, findErr := s.orders.FindByIdempotencyKey(ctx, accountID, idempotencyKey)
			if findErr == nil {
				if setErr := s.carts.SetIdempotency(ctx, accountID, idempotencyKey, existing.ID.String(), idempotencyTTL); setErr != nil {
					log.Warn("Failed to store idempotency result", zap.Error(setErr))
				}
				return existing, true, nil
			}
			log.Warn("Order key conflict without a stored order", zap.Error(findErr))
		}
		return nil, false, internal(log, "Failed to save order", err)
	}

	s.announce(ctx, order)
	s.removePurchased(ctx, accountID, order)

	if idempotencyKey != "" {
		if err := s.carts.SetIdempotency(ctx, accountID, idempotencyKey, order.ID.String(), idempotencyTTL); err != nil {
			log.Warn("Failed to store idempotency result", zap.Error(err))
		}
	}
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCartCheckouts, nil)
	log.Info("Checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.Float64("total", order.Total),
		zap.Int("lines", len(order.Items)),
	)
	return order, false, nil
}

// previousCheckout returns the order an idempotency key already produced, if any.
func (s *cartService) previousCheckout(ctx context.Context, accountID uuid.UUID, key string) (*models.Order, error) {
	orderID, err := s.carts.GetIdempotency(ctx, accountID, key)
	if err != nil {
		return nil, internal(s.logger, "Failed to read idempotency key", err)
	}
	if orderID == repository.IdempotencyPending {
		return nil, apperrors.New(http.StatusConflict, "A checkout with this key is already in progress", nil)
	}
	if id, parseErr := uuid.Parse(orderID); parseErr == nil {
		order, err := s.orders.FindByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !repository.IsNotFound(err) {
			return nil, internal(s.logger, "Failed to load previous order", err)
		}
	}

	// the redis entry may have expired while the order row remains
	order, err := s.orders.FindByIdempotencyKey(ctx, accountID, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, internal(s.logger, "Failed to load previous order", err)
	}
	return order, nil
}

// priceOrder builds the order from live catalog prices.
func (s *cartService) priceOrder(ctx context.Context, accountID uuid.UUID, cart *models.Cart) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.BookID)
	}
	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal(s.logger, "Failed to load cart books", err)
	}
	byID := make(map[uuid.UUID]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	order := &models.Order{
		ID:        uuid.New(),
		AccountID: accountID,
		Status:    models.OrderPending,
	}
	for _, item := range cart.Items {
		book := byID[item.BookID]
		if !book.Purchasable() {
			e := apperrors.New(http.StatusConflict, "A book in the cart is no longer available", nil)
			e.Fields = map[string]string{"book_id": item.BookID.String()}
			return nil, e
		}
		order.Items = append(order.Items, models.OrderItem{
			BookID:    book.ID,
			Title:     book.Title,
			UnitPrice: book.Price,
			Quantity:  item.Quantity,
		})
		order.Subtotal += book.Price * float64(item.Quantity)
	}
	order.Subtotal = round2(order.Subtotal)
	order.Total = order.Subtotal
	return order, nil
}

func (s *cartService) announce(ctx context.Context, order *models.Order) {
	now := time.Now().UTC()
	s.publisher.Publish(ctx, models.EventCheckoutRequested, models.CheckoutRequestedEvent{
		EventType:     models.EventCheckoutRequested,
		OrderID:       order.ID.String(),
		AccountID:     order.AccountID.String(),
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		Total:         order.Total,
		PromotionCode: order.PromotionCode,
		Timestamp:     now,
	})
	if order.PromotionCode == "" {
		return
	}
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPromotionsRedeemed, map[string]string{"Code": order.PromotionCode})
	s.publisher.Publish(ctx, models.EventPromotionRedeemed, models.PromotionRedeemedEvent{
		EventType: models.EventPromotionRedeemed,
		Code:      order.PromotionCode,
		OrderID:   order.ID.String(),
		Discount:  order.Discount,
		Timestamp: now,
	})
}

// removePurchased takes the ordered quantities out of the cart. Lines added while the
// checkout ran are kept.
func (s *cartService) removePurchased(ctx context.Context, accountID uuid.UUID, order *models.Order) {
	_, err := s.carts.Update(ctx, accountID, nil, func(cart *models.Cart) error {
		for _, item := range order.Items {
			i := cart.Find(item.BookID)
			if i < 0 {
				continue
			}
			if cart.Items[i].Quantity <= item.Quantity {
				cart.Remove(item.BookID)
				continue
			}
			cart.Items[i].Quantity -= item.Quantity
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to clear purchased cart lines", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}
