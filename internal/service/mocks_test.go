package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/moderation"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/google/uuid"
)

// fakeClassifier 按关键词返回得分的假审核客户端
type fakeClassifier struct {
	mu     sync.Mutex
	scores map[string]map[string]float64 // 关键词 -> 得分
	err    error
	calls  int
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{scores: make(map[string]map[string]float64)}
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for keyword, scores := range f.scores {
		if strings.Contains(text, keyword) {
			return scores, nil
		}
	}
	return map[string]float64{"harassment": 0.01}, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ moderation.Client = (*fakeClassifier)(nil)

// mockProductRepository 内存商品仓储
type mockProductRepository struct {
	mu        sync.Mutex
	products  map[string]*model.Product
	favorites map[string]bool // userID+"|"+productID
	views     map[string]bool
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:  make(map[string]*model.Product),
		favorites: make(map[string]bool),
		views:     make(map[string]bool),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.Status = model.Transition(product.Status, model.EventCreated)
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) GetVisible(ctx context.Context, id, viewerID string) (*model.Product, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(p, viewerID) {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter *repository.ProductFilter, viewerID string, page *repository.Pagination) ([]*model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Product
	for _, p := range m.products {
		if Visible(p, viewerID) {
			copied := *p
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockProductRepository) UpdateFields(ctx context.Context, product *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[product.ID]
	if !ok || existing.AuthorID != product.AuthorID {
		return repository.ErrProductNotFound
	}
	existing.Title = product.Title
	existing.Description = product.Description
	existing.Price = product.Price
	existing.CategoryID = product.CategoryID
	existing.CountryID = product.CountryID
	existing.CityID = product.CityID
	existing.CurrencyID = product.CurrencyID
	existing.Status = model.Transition(existing.Status, model.EventEdited)
	existing.UpdatedAt = time.Now()
	product.Status = existing.Status
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.AuthorID != authorID {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return false, nil
	}
	if p.Status != model.StatusPending || !p.UpdatedAt.Equal(seenUpdatedAt) {
		return false, nil
	}
	p.Status = next
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockProductRepository) ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-threshold)
	var count int64
	for _, p := range m.products {
		if p.Status == model.StatusPublished && p.UpdatedAt.Before(cutoff) {
			p.Status = model.Transition(p.Status, model.EventAgedOut)
			p.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) ListPending(ctx context.Context, limit int) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Product
	for _, p := range m.products {
		if p.Status == model.StatusPending {
			copied := *p
			result = append(result, &copied)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockProductRepository) SetPremium(ctx context.Context, id string, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.IsPremium = premium
	p.UpdatedAt = time.Now()
	return nil
}

func (m *mockProductRepository) AddFavorite(ctx context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + productID
	if m.favorites[key] {
		return false, nil
	}
	m.favorites[key] = true
	return true, nil
}

func (m *mockProductRepository) RemoveFavorite(ctx context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + productID
	if !m.favorites[key] {
		return false, nil
	}
	delete(m.favorites, key)
	return true, nil
}

func (m *mockProductRepository) CountFavorites(ctx context.Context, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for key := range m.favorites {
		if strings.HasSuffix(key, "|"+productID) {
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) ListFavorites(ctx context.Context, userID string, page *repository.Pagination) ([]*model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Product
	for key := range m.favorites {
		if strings.HasPrefix(key, userID+"|") {
			id := strings.TrimPrefix(key, userID+"|")
			if p, ok := m.products[id]; ok && Visible(p, userID) {
				copied := *p
				result = append(result, &copied)
			}
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockProductRepository) RecordView(ctx context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[userID+"|"+productID] = true
	return nil
}

func (m *mockProductRepository) CountViews(ctx context.Context, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for key := range m.views {
		if strings.HasSuffix(key, "|"+productID) {
			count++
		}
	}
	return count, nil
}

// setUpdatedAt 测试用：直接改写库内记录的 updated_at
func (m *mockProductRepository) setUpdatedAt(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.UpdatedAt = t
	}
}

// setStatus 测试用：直接改写库内记录的状态
func (m *mockProductRepository) setStatus(id string, s model.ContentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Status = s
	}
}

var _ repository.ProductRepository = (*mockProductRepository)(nil)

// mockCommentRepository 内存评论仓储
type mockCommentRepository struct {
	mu       sync.Mutex
	comments map[string]*model.Comment
}

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{comments: make(map[string]*model.Comment)}
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.Status = model.Transition(comment.Status, model.EventCreated)
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.comments[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrCommentNotFound
}

func (m *mockCommentRepository) GetVisible(ctx context.Context, id, viewerID string) (*model.Comment, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(c, viewerID) {
		return nil, repository.ErrCommentNotFound
	}
	return c, nil
}

func (m *mockCommentRepository) ListByProduct(ctx context.Context, productID, viewerID string, page *repository.Pagination) ([]*model.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Comment
	for _, c := range m.comments {
		if c.ProductID == productID && Visible(c, viewerID) {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockCommentRepository) CountVisible(ctx context.Context, productID, viewerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, c := range m.comments {
		if c.ProductID == productID && Visible(c, viewerID) {
			count++
		}
	}
	return count, nil
}

func (m *mockCommentRepository) UpdateText(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.comments[comment.ID]
	if !ok || existing.AuthorID != comment.AuthorID {
		return repository.ErrCommentNotFound
	}
	existing.Text = comment.Text
	existing.Status = model.Transition(existing.Status, model.EventEdited)
	existing.UpdatedAt = time.Now()
	comment.Status = existing.Status
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, id, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || c.AuthorID != authorID {
		return repository.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepository) UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return false, nil
	}
	if c.Status != model.StatusPending || !c.UpdatedAt.Equal(seenUpdatedAt) {
		return false, nil
	}
	c.Status = next
	c.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockCommentRepository) ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-threshold)
	var count int64
	for _, c := range m.comments {
		if c.Status == model.StatusPublished && c.UpdatedAt.Before(cutoff) {
			c.Status = model.Transition(c.Status, model.EventAgedOut)
			c.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (m *mockCommentRepository) ListPending(ctx context.Context, limit int) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Comment
	for _, c := range m.comments {
		if c.Status == model.StatusPending {
			copied := *c
			result = append(result, &copied)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

var _ repository.CommentRepository = (*mockCommentRepository)(nil)

// mockTaxonomyRepository 内存基础数据仓储
type mockTaxonomyRepository struct {
	categories map[string]*model.Category
	countries  map[string]*model.Country
	cities     map[string]*model.City
	currencies map[string]*model.Currency
}

func newMockTaxonomyRepository() *mockTaxonomyRepository {
	return &mockTaxonomyRepository{
		categories: make(map[string]*model.Category),
		countries:  make(map[string]*model.Country),
		cities:     make(map[string]*model.City),
		currencies: make(map[string]*model.Currency),
	}
}

// seedDefaults 预置一组常用的基础数据
func (m *mockTaxonomyRepository) seedDefaults() (categoryID, countryID, cityID, currencyID string) {
	categoryID, countryID, cityID, currencyID = "cat-1", "country-1", "city-1", "cur-1"
	m.categories[categoryID] = &model.Category{BaseModel: model.BaseModel{ID: categoryID}, Name: "电子产品"}
	m.countries[countryID] = &model.Country{BaseModel: model.BaseModel{ID: countryID}, Name: "泰国"}
	m.cities[cityID] = &model.City{BaseModel: model.BaseModel{ID: cityID}, Name: "曼谷", CountryID: countryID}
	m.currencies[currencyID] = &model.Currency{BaseModel: model.BaseModel{ID: currencyID}, Name: "泰铢", Code: "THB"}
	return
}

func (m *mockTaxonomyRepository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var result []*model.Category
	for _, c := range m.categories {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockTaxonomyRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockTaxonomyRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.Slugify()
	m.categories[category.ID] = category
	return nil
}

func (m *mockTaxonomyRepository) ListCountries(ctx context.Context) ([]*model.Country, error) {
	var result []*model.Country
	for _, c := range m.countries {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockTaxonomyRepository) GetCountry(ctx context.Context, id string) (*model.Country, error) {
	if c, ok := m.countries[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCountryNotFound
}

func (m *mockTaxonomyRepository) ListCities(ctx context.Context, countryID string) ([]*model.City, error) {
	var result []*model.City
	for _, c := range m.cities {
		if countryID == "" || c.CountryID == countryID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockTaxonomyRepository) GetCity(ctx context.Context, id string) (*model.City, error) {
	if c, ok := m.cities[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCityNotFound
}

func (m *mockTaxonomyRepository) ListCurrencies(ctx context.Context) ([]*model.Currency, error) {
	var result []*model.Currency
	for _, c := range m.currencies {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockTaxonomyRepository) GetCurrency(ctx context.Context, id string) (*model.Currency, error) {
	if c, ok := m.currencies[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCurrencyNotFound
}

var _ repository.TaxonomyRepository = (*mockTaxonomyRepository)(nil)

// mockUserRepository 内存用户仓储
type mockUserRepository struct {
	mu      sync.Mutex
	users   map[string]*model.User
	ratings map[string]*model.SellerRating // raterID+"|"+sellerID
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:   make(map[string]*model.User),
		ratings: make(map[string]*model.SellerRating),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepository) Rate(ctx context.Context, rating *model.SellerRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[rating.RaterID+"|"+rating.SellerID] = rating
	return nil
}

func (m *mockUserRepository) AverageRating(ctx context.Context, sellerID string) (float64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, count int64
	for _, r := range m.ratings {
		if r.SellerID == sellerID {
			sum += int64(r.Score)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

var _ repository.UserRepository = (*mockUserRepository)(nil)

// mockPremiumRepository 内存置顶仓储
type mockPremiumRepository struct {
	mu       sync.Mutex
	plans    map[string]*model.PremiumPlan
	premiums map[string]*model.ProductPremium
}

func newMockPremiumRepository() *mockPremiumRepository {
	return &mockPremiumRepository{
		plans:    make(map[string]*model.PremiumPlan),
		premiums: make(map[string]*model.ProductPremium),
	}
}

func (m *mockPremiumRepository) ListActivePlans(ctx context.Context) ([]*model.PremiumPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.PremiumPlan
	for _, p := range m.plans {
		if p.IsActive {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPremiumRepository) GetPlan(ctx context.Context, id string) (*model.PremiumPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, repository.ErrPlanNotFound
}

func (m *mockPremiumRepository) CreatePlan(ctx context.Context, plan *model.PremiumPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	m.plans[plan.ID] = plan
	return nil
}

func (m *mockPremiumRepository) CreateProductPremium(ctx context.Context, premium *model.ProductPremium) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if premium.ID == "" {
		premium.ID = uuid.New().String()
	}
	m.premiums[premium.ID] = premium
	return nil
}

func (m *mockPremiumRepository) ActiveForProduct(ctx context.Context, productID string, now time.Time) (*model.ProductPremium, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.premiums {
		if p.ProductID == productID && p.IsActive && p.EndDate.After(now) {
			return p, nil
		}
	}
	return nil, repository.ErrPremiumNotFound
}

func (m *mockPremiumRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.ProductPremium, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ProductPremium
	for _, p := range m.premiums {
		if p.IsActive && !p.EndDate.After(now) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPremiumRepository) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.premiums[id]
	if !ok {
		return repository.ErrPremiumNotFound
	}
	p.IsActive = false
	return nil
}

var _ repository.PremiumRepository = (*mockPremiumRepository)(nil)
