package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
)

type WishlistService interface {
	List(ctx context.Context, accountID uuid.UUID) ([]models.WishlistEntry, error)
	// Add is idempotent; created is false when the book was already saved.
	Add(ctx context.Context, accountID, bookID uuid.UUID) (created bool, err error)
	Remove(ctx context.Context, accountID, bookID uuid.UUID) error
	// MoveToCart adds one copy to the cart and only then drops the wishlist entry.
	MoveToCart(ctx context.Context, accountID, bookID uuid.UUID) (*models.CartView, error)
}

type wishlistService struct {
	wishlist repository.WishlistRepository
	books    repository.BookRepository
	stock    repository.StockRepository
	cart     CartService
	guard    ItemGuard
	logger   *zap.Logger
}

func NewWishlistService(
	wishlist repository.WishlistRepository,
	books repository.BookRepository,
	stock repository.StockRepository,
	cart CartService,
	guard ItemGuard,
	logger *zap.Logger,
) WishlistService {
	return &wishlistService{
		wishlist: wishlist,
		books:    books,
		stock:    stock,
		cart:     cart,
		guard:    guard,
		logger:   logger,
	}
}

func (s *wishlistService) List(ctx context.Context, accountID uuid.UUID) ([]models.WishlistEntry, error) {
	items, err := s.wishlist.List(ctx, accountID)
	if err != nil {
		return nil, internal(s.logger, "Failed to load wishlist", err)
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.BookID.String())
	}
	levels := map[string]models.Stock{}
	if len(keys) > 0 {
		if levels, err = s.stock.GetMany(ctx, keys); err != nil {
			s.logger.Warn("Failed to read wishlist stock levels", zap.Error(err))
			levels = map[string]models.Stock{}
		}
	}

	entries := make([]models.WishlistEntry, 0, len(items))
	for _, item := range items {
		if item.Book == nil {
			continue
		}
		entries = append(entries, models.WishlistEntry{
			BookID:  item.BookID,
			AddedAt: item.CreatedAt,
			Book:    item.Book.Summary(levels[item.BookID.String()].Available > 0),
		})
	}
	return entries, nil
}

func (s *wishlistService) Add(ctx context.Context, accountID, bookID uuid.UUID) (bool, error) {
	release, err := s.guard.Acquire(ctx, GuardWishlist, accountID, bookID)
	if err != nil {
		return false, err
	}
	defer release()

	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		if repository.IsNotFound(err) {
			return false, notFound("Book")
		}
		return false, internal(s.logger, "Failed to load book", err)
	}
	created, err := s.wishlist.Add(ctx, accountID, bookID)
	if err != nil {
		return false, internal(s.logger, "Failed to add wishlist item", err)
	}
	return created, nil
}

func (s *wishlistService) Remove(ctx context.Context, accountID, bookID uuid.UUID) error {
	release, err := s.guard.Acquire(ctx, GuardWishlist, accountID, bookID)
	if err != nil {
		return err
	}
	defer release()

	return s.remove(ctx, accountID, bookID)
}

func (s *wishlistService) remove(ctx context.Context, accountID, bookID uuid.UUID) error {
	if err := s.wishlist.Remove(ctx, accountID, bookID); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Wishlist item")
		}
		return internal(s.logger, "Failed to remove wishlist item", err)
	}
	return nil
}

func (s *wishlistService) MoveToCart(ctx context.Context, accountID, bookID uuid.UUID) (*models.CartView, error) {
	release, err := s.guard.Acquire(ctx, GuardWishlist, accountID, bookID)
	if err != nil {
		return nil, err
	}
	defer release()

	exists, err := s.wishlist.Exists(ctx, accountID, bookID)
	if err != nil {
		return nil, internal(s.logger, "Failed to load wishlist item", err)
	}
	if !exists {
		return nil, notFound("Wishlist item")
	}

	view, err := s.cart.AddItem(ctx, accountID, &models.AddCartItemRequest{BookID: bookID, Quantity: 1})
	if err != nil {
		return nil, err
	}
	if err := s.remove(ctx, accountID, bookID); err != nil {
		// the cart already holds the book; a lingering wishlist entry is harmless
		s.logger.Warn("Moved book to cart but could not remove wishlist entry",
			zap.String("account_id", accountID.String()),
			zap.String("book_id", bookID.String()),
			zap.Error(err),
		)
	}
	return view, nil
}
