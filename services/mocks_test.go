package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

// --- Accounts & tokens ---

type memAccounts struct {
	byID map[uuid.UUID]*models.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[uuid.UUID]*models.Account{}}
}

func (m *memAccounts) Create(_ context.Context, a *models.Account) error {
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.byID[a.ID] = a
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range m.byID {
		if a.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memAccounts) Update(_ context.Context, a *models.Account) error {
	if _, ok := m.byID[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

func (m *memAccounts) UpdateStatus(_ context.Context, id uuid.UUID, status models.AccountStatus) error {
	a, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) List(_ context.Context, f models.AccountFilter, _, _ int) ([]models.Account, int64, error) {
	var out []models.Account
	for _, a := range m.byID {
		if len(f.Roles) > 0 {
			match := false
			for _, r := range f.Roles {
				match = match || a.Role == r
			}
			if !match {
				continue
			}
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (m *memAccounts) CreateStaff(ctx context.Context, a *models.Account, p *models.StaffProfile) error {
	if err := m.Create(ctx, a); err != nil {
		return err
	}
	p.AccountID = a.ID
	a.Staff = p
	return nil
}

func (m *memAccounts) FindStaffByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Role != models.RoleStaff && a.Role != models.RoleAdmin {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *memAccounts) UpdateStaff(ctx context.Context, a *models.Account, p *models.StaffProfile) error {
	a.Staff = p
	return m.Update(ctx, a)
}

func (m *memAccounts) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return m.Delete(ctx, id)
}

type memTokens struct {
	tokens  map[string]*models.RefreshToken
	revoked []uuid.UUID
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*models.RefreshToken{}}
}

func (m *memTokens) Save(_ context.Context, t *models.RefreshToken) error {
	m.tokens[t.TokenID] = t
	return nil
}

func (m *memTokens) Consume(_ context.Context, tokenID string) (bool, error) {
	t, ok := m.tokens[tokenID]
	if !ok || t.Revoked || time.Now().After(t.ExpiresAt) {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (m *memTokens) RevokeAll(_ context.Context, accountID uuid.UUID) error {
	m.revoked = append(m.revoked, accountID)
	for _, t := range m.tokens {
		if t.AccountID == accountID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memTokens) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// --- Catalog ---

type memBooks struct {
	byID map[uuid.UUID]*models.Book
	// finds counts FindBySlug calls.
	finds int
	mu    sync.Mutex
	// findDelay overrides the simulated FindBySlug latency.
	findDelay time.Duration
	// racer is stored just before the next write, as a concurrent writer would.
	racer *models.Book
}

func (m *memBooks) admitRacer() {
	if m.racer != nil {
		m.byID[m.racer.ID] = m.racer
		m.racer = nil
	}
}

func (m *memBooks) violates(b *models.Book) bool {
	for _, existing := range m.byID {
		if existing.ID == b.ID {
			continue
		}
		if existing.Slug == b.Slug {
			return true
		}
		if b.ISBN != "" && existing.ISBN == b.ISBN && !existing.DeletedAt.Valid {
			return true
		}
	}
	return false
}

func newMemBooks(books ...*models.Book) *memBooks {
	m := &memBooks{byID: map[uuid.UUID]*models.Book{}}
	for _, b := range books {
		m.byID[b.ID] = b
	}
	return m
}

func newBook(title string, price float64) *models.Book {
	return &models.Book{
		ID:     uuid.New(),
		Title:  title,
		Slug:   strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Author: "Author",
		Price:  price,
		Status: models.BookActive,
	}
}

func (m *memBooks) Create(_ context.Context, b *models.Book) error {
	m.admitRacer()
	if m.violates(b) {
		return gorm.ErrDuplicatedKey
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	m.byID[b.ID] = b
	return nil
}

func (m *memBooks) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b, ok := m.byID[id]
	if !ok || b.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBooks) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	m.mu.Lock()
	m.finds++
	delay := m.findDelay
	m.mu.Unlock()
	if delay == 0 {
		delay = 20 * time.Millisecond
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	for _, b := range m.byID {
		if b.Slug == slug && !b.DeletedAt.Valid {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBooks) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Book, error) {
	var out []models.Book
	for _, id := range ids {
		if b, ok := m.byID[id]; ok && !b.DeletedAt.Valid {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBooks) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, b := range m.byID {
		if b.Slug == slug && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBooks) Update(_ context.Context, b *models.Book, categories *[]models.Category) error {
	m.admitRacer()
	if m.violates(b) {
		return gorm.ErrDuplicatedKey
	}
	cp := *b
	if categories != nil {
		cp.Categories = *categories
	}
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBooks) Delete(_ context.Context, id uuid.UUID) error {
	b, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (m *memBooks) List(_ context.Context, f models.BookFilter) ([]models.Book, int64, error) {
	var out []models.Book
	for _, b := range m.byID {
		if b.DeletedAt.Valid || (f.Status != "" && b.Status != f.Status) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

type memCategories struct {
	byID  map[uuid.UUID]*models.Category
	inUse map[uuid.UUID]bool
}

func newMemCategories(cats ...*models.Category) *memCategories {
	m := &memCategories{byID: map[uuid.UUID]*models.Category{}, inUse: map[uuid.UUID]bool{}}
	for _, c := range cats {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCategories) Create(_ context.Context, c *models.Category) error {
	for _, existing := range m.byID {
		if existing.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = uuid.New()
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCategories) FindAll(_ context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCategories) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, c := range m.byID {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCategories) Update(_ context.Context, c *models.Category) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCategories) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memCategories) HasBooks(_ context.Context, id uuid.UUID) (bool, error) {
	return m.inUse[id], nil
}

// --- Stock ---

type memStock struct {
	mu     sync.Mutex
	levels map[string]*models.Stock
	// failReserve makes Reserve of that book fail with the given error.
	failReserve map[string]error
	released    map[string]int
	confirmed   map[string]int
	// adjusts counts Adjust calls.
	adjusts int
}

func newMemStock() *memStock {
	return &memStock{
		levels:      map[string]*models.Stock{},
		failReserve: map[string]error{},
		released:    map[string]int{},
		confirmed:   map[string]int{},
	}
}

func (m *memStock) set(bookID uuid.UUID, available int) {
	m.levels[bookID.String()] = &models.Stock{BookID: bookID.String(), Available: available, Threshold: 2}
}

func (m *memStock) Get(_ context.Context, bookID string) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.levels[bookID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStock) GetMany(_ context.Context, ids []string) (map[string]models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.Stock{}
	for _, id := range ids {
		if s, ok := m.levels[id]; ok {
			out[id] = *s
		}
	}
	return out, nil
}

func (m *memStock) Scan(_ context.Context, _ int32, _ string) (*models.StockPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := &models.StockPage{}
	for _, s := range m.levels {
		page.Items = append(page.Items, *s)
	}
	return page, nil
}

func (m *memStock) Put(_ context.Context, s *models.Stock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.levels[s.BookID] = &cp
	return nil
}

func (m *memStock) entry(bookID string) *models.Stock {
	s, ok := m.levels[bookID]
	if !ok {
		s = &models.Stock{BookID: bookID, Threshold: 5}
		m.levels[bookID] = s
	}
	return s
}

func (m *memStock) Adjust(_ context.Context, bookID string, delta int, threshold *int) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjusts++
	s := m.entry(bookID)
	if s.Available+delta < 0 {
		return nil, repository.ErrInsufficientStock
	}
	s.Available += delta
	if threshold != nil {
		s.Threshold = *threshold
	}
	cp := *s
	return &cp, nil
}

func (m *memStock) Set(_ context.Context, bookID string, available int, threshold *int) (int, *models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(bookID)
	previous := s.Available
	s.Available = available
	if threshold != nil {
		s.Threshold = *threshold
	}
	cp := *s
	return previous, &cp, nil
}

func (m *memStock) Reserve(_ context.Context, bookID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failReserve[bookID]; err != nil {
		return err
	}
	s, ok := m.levels[bookID]
	if !ok || s.Available < quantity {
		return repository.ErrInsufficientStock
	}
	s.Available -= quantity
	s.Reserved += quantity
	return nil
}

func (m *memStock) Release(_ context.Context, bookID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(bookID)
	s.Available += quantity
	s.Reserved -= quantity
	m.released[bookID] += quantity
	return nil
}

func (m *memStock) Confirm(_ context.Context, bookID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(bookID)
	s.Reserved -= quantity
	m.confirmed[bookID] += quantity
	return nil
}

type memStockLog struct {
	receipts  []models.StockReceipt
	movements []models.StockMovement
	failNext  error
}

func (m *memStockLog) CreateReceipt(_ context.Context, r *models.StockReceipt, movements []models.StockMovement) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.receipts = append(m.receipts, *r)
	m.movements = append(m.movements, movements...)
	return nil
}

func (m *memStockLog) FindReceipts(_ context.Context, _ *uuid.UUID, _, _ int) ([]models.StockReceipt, int64, error) {
	return m.receipts, int64(len(m.receipts)), nil
}

func (m *memStockLog) RecordMovements(_ context.Context, movements []models.StockMovement) error {
	m.movements = append(m.movements, movements...)
	return nil
}

func (m *memStockLog) FindMovements(_ context.Context, bookID uuid.UUID, _, _ int) ([]models.StockMovement, int64, error) {
	var out []models.StockMovement
	for _, mv := range m.movements {
		if mv.BookID == bookID {
			out = append(out, mv)
		}
	}
	return out, int64(len(out)), nil
}

// --- Promotions, orders, wishlist, suppliers, media ---

type memPromotions struct {
	byCode map[string]*models.Promotion
}

func newMemPromotions(promos ...*models.Promotion) *memPromotions {
	m := &memPromotions{byCode: map[string]*models.Promotion{}}
	for _, p := range promos {
		m.byCode[p.Code] = p
	}
	return m
}

func (m *memPromotions) Create(_ context.Context, p *models.Promotion) error {
	if _, ok := m.byCode[p.Code]; ok {
		return gorm.ErrDuplicatedKey
	}
	p.ID = uuid.New()
	m.byCode[p.Code] = p
	return nil
}

func (m *memPromotions) FindByID(_ context.Context, id uuid.UUID) (*models.Promotion, error) {
	for _, p := range m.byCode {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPromotions) FindByCode(_ context.Context, code string) (*models.Promotion, error) {
	p, ok := m.byCode[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPromotions) Update(_ context.Context, p *models.Promotion) error {
	cp := *p
	m.byCode[p.Code] = &cp
	return nil
}

func (m *memPromotions) Delete(_ context.Context, id uuid.UUID) error {
	for code, p := range m.byCode {
		if p.ID == id {
			delete(m.byCode, code)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memPromotions) FindAll(_ context.Context, _ bool, _, _ int) ([]models.Promotion, int64, error) {
	var out []models.Promotion
	for _, p := range m.byCode {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *memPromotions) Redeem(_ context.Context, code string, _ time.Time) (bool, error) {
	p, ok := m.byCode[code]
	if !ok || (p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit) {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

func (m *memPromotions) Unredeem(_ context.Context, code string) error {
	if p, ok := m.byCode[code]; ok && p.UsedCount > 0 {
		p.UsedCount--
	}
	return nil
}

type memOrders struct {
	byID    map[uuid.UUID]*models.Order
	failErr error
	// inserted just before the next Create, as a concurrent writer would
	racer *models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[uuid.UUID]*models.Order{}}
}

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	if m.failErr != nil {
		return m.failErr
	}
	if m.racer != nil {
		m.byID[m.racer.ID] = m.racer
		m.racer = nil
	}
	if o.IdempotencyKey != "" {
		for _, existing := range m.byID {
			if existing.AccountID == o.AccountID && existing.IdempotencyKey == o.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) FindByIdempotencyKey(_ context.Context, accountID uuid.UUID, key string) (*models.Order, error) {
	for _, o := range m.byID {
		if o.AccountID == accountID && o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrders) MarkPaid(_ context.Context, o *models.Order) (bool, error) {
	stored, ok := m.byID[o.ID]
	if !ok || stored.Status != models.OrderPending {
		return false, nil
	}
	stored.Status = models.OrderPaid
	return true, nil
}

func (m *memOrders) MarkCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	stored, ok := m.byID[id]
	if !ok || stored.Status != models.OrderPending {
		return false, nil
	}
	stored.Status = models.OrderCancelled
	return true, nil
}

type memWishlist struct {
	items map[[2]uuid.UUID]time.Time
	books *memBooks
}

func newMemWishlist(books *memBooks) *memWishlist {
	return &memWishlist{items: map[[2]uuid.UUID]time.Time{}, books: books}
}

func (m *memWishlist) Add(_ context.Context, accountID, bookID uuid.UUID) (bool, error) {
	k := [2]uuid.UUID{accountID, bookID}
	if _, ok := m.items[k]; ok {
		return false, nil
	}
	m.items[k] = time.Now()
	return true, nil
}

func (m *memWishlist) Remove(_ context.Context, accountID, bookID uuid.UUID) error {
	k := [2]uuid.UUID{accountID, bookID}
	if _, ok := m.items[k]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, k)
	return nil
}

func (m *memWishlist) List(_ context.Context, accountID uuid.UUID) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for k, at := range m.items {
		if k[0] != accountID {
			continue
		}
		out = append(out, models.WishlistItem{AccountID: k[0], BookID: k[1], Book: m.books.byID[k[1]], CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memWishlist) Exists(_ context.Context, accountID, bookID uuid.UUID) (bool, error) {
	_, ok := m.items[[2]uuid.UUID{accountID, bookID}]
	return ok, nil
}

type memSuppliers struct {
	byID map[uuid.UUID]*models.Supplier
}

func newMemSuppliers(suppliers ...*models.Supplier) *memSuppliers {
	m := &memSuppliers{byID: map[uuid.UUID]*models.Supplier{}}
	for _, s := range suppliers {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memSuppliers) Create(_ context.Context, s *models.Supplier) error {
	for _, existing := range m.byID {
		if existing.Name == s.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	s.ID = uuid.New()
	m.byID[s.ID] = s
	return nil
}

func (m *memSuppliers) FindByID(_ context.Context, id uuid.UUID) (*models.Supplier, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSuppliers) FindAll(_ context.Context, _ string, _, _ int) ([]models.Supplier, int64, error) {
	var out []models.Supplier
	for _, s := range m.byID {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (m *memSuppliers) Update(_ context.Context, s *models.Supplier) error {
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSuppliers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.byID, id)
	return nil
}

type memMedia struct {
	byID map[uuid.UUID]*models.Media
}

func (m *memMedia) Create(_ context.Context, media *models.Media) error {
	media.ID = uuid.New()
	m.byID[media.ID] = media
	return nil
}

func (m *memMedia) FindByID(_ context.Context, id uuid.UUID) (*models.Media, error) {
	media, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return media, nil
}

func (m *memMedia) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

type fakeObjectStore struct {
	deleted []string
}

func (f *fakeObjectStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key + "?sig=1", nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- Events & infrastructure ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// noMetrics is a disabled CloudWatch client; its methods are no-ops on nil.
var noMetrics aws_pkg.Recorder = (*aws_pkg.MetricsClient)(nil)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
