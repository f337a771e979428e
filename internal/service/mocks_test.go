package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

// fakeTx satisfies pgx.Tx for code paths where the mocks never touch
// the transaction itself. Unoverridden methods panic if reached.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
	deducted map[uuid.UUID]int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		deducted: make(map[uuid.UUID]int),
	}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) DeductStock(_ context.Context, _ pgx.Tx, id uuid.UUID, qty int) error {
	p, ok := m.products[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if !p.TrackQuantity {
		return nil
	}
	p.Quantity -= qty
	if p.Quantity < 0 {
		p.Quantity = 0
	}
	m.deducted[id] += qty
	return nil
}

// --- cart ---

type mockCartRepo struct {
	items map[uuid.UUID]map[uuid.UUID]int // user -> product -> qty
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{items: make(map[uuid.UUID]map[uuid.UUID]int)}
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var out []model.CartItem
	for productID, qty := range m.items[userID] {
		out = append(out, model.CartItem{UserID: userID, ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	if m.items[item.UserID] == nil {
		m.items[item.UserID] = make(map[uuid.UUID]int)
	}
	m.items[item.UserID][item.ProductID] += item.Quantity
	return nil
}

func (m *mockCartRepo) SetQuantity(_ context.Context, userID, productID uuid.UUID, qty int) error {
	if _, ok := m.items[userID][productID]; !ok {
		return pgx.ErrNoRows
	}
	m.items[userID][productID] = qty
	return nil
}

func (m *mockCartRepo) Remove(_ context.Context, userID, productID uuid.UUID) error {
	if _, ok := m.items[userID][productID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items[userID], productID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	delete(m.items, userID)
	return nil
}

// --- coupons ---

type mockCouponRepo struct {
	coupons map[uuid.UUID]*model.Coupon
	usage   map[string]bool // couponID/userID
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{
		coupons: make(map[uuid.UUID]*model.Coupon),
		usage:   make(map[string]bool),
	}
}

func usageKey(couponID, userID uuid.UUID) string {
	return couponID.String() + "/" + userID.String()
}

func (m *mockCouponRepo) Create(_ context.Context, c *model.Coupon) error {
	c.ID = uuid.New()
	c.Code = strings.ToUpper(c.Code)
	m.coupons[c.ID] = c
	return nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, ok := m.coupons[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range m.coupons {
		if c.Code == strings.ToUpper(code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCouponRepo) List(_ context.Context, _, _ int) ([]model.Coupon, int, error) {
	var out []model.Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCouponRepo) Update(_ context.Context, c *model.Coupon) error {
	if _, ok := m.coupons[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.coupons[c.ID] = c
	return nil
}

func (m *mockCouponRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.coupons, id)
	return nil
}

func (m *mockCouponRepo) HasUsage(_ context.Context, couponID, userID uuid.UUID) (bool, error) {
	return m.usage[usageKey(couponID, userID)], nil
}

func (m *mockCouponRepo) Spend(_ context.Context, _ pgx.Tx, usage *model.CouponUsage) error {
	key := usageKey(usage.CouponID, usage.UserID)
	if m.usage[key] {
		return repository.ErrDuplicateCouponUsage
	}
	c, ok := m.coupons[usage.CouponID]
	if !ok {
		return pgx.ErrNoRows
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return repository.ErrCouponLimitReached
	}
	m.usage[key] = true
	c.UsedCount++
	return nil
}

// --- categories ---

type mockCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (m *mockCategoryRepo) Create(_ context.Context, c *model.Category) error {
	c.ID = uuid.New()
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) List(_ context.Context, activeOnly bool) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *model.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.categories, id)
	return nil
}

// --- payment methods ---

type mockPaymentMethodRepo struct {
	methods map[string]*model.PaymentMethod
}

func newMockPaymentMethodRepo() *mockPaymentMethodRepo {
	return &mockPaymentMethodRepo{methods: make(map[string]*model.PaymentMethod)}
}

func (m *mockPaymentMethodRepo) List(_ context.Context, activeOnly bool) ([]model.PaymentMethod, error) {
	var out []model.PaymentMethod
	for _, pm := range m.methods {
		if activeOnly && !pm.IsActive {
			continue
		}
		out = append(out, *pm)
	}
	return out, nil
}

func (m *mockPaymentMethodRepo) GetByCode(_ context.Context, code string) (*model.PaymentMethod, error) {
	pm, ok := m.methods[code]
	if !ok {
		return nil, nil
	}
	cp := *pm
	return &cp, nil
}

func (m *mockPaymentMethodRepo) Update(_ context.Context, pm *model.PaymentMethod) error {
	if _, ok := m.methods[pm.Code]; !ok {
		return pgx.ErrNoRows
	}
	m.methods[pm.Code] = pm
	return nil
}

// --- governorates ---

type mockGovRepo struct {
	govs map[uuid.UUID]*model.Governorate
}

func newMockGovRepo() *mockGovRepo {
	return &mockGovRepo{govs: make(map[uuid.UUID]*model.Governorate)}
}

func (m *mockGovRepo) Create(_ context.Context, g *model.Governorate) error {
	g.ID = uuid.New()
	m.govs[g.ID] = g
	return nil
}

func (m *mockGovRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Governorate, error) {
	g, ok := m.govs[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *mockGovRepo) List(_ context.Context, activeOnly bool) ([]model.Governorate, error) {
	var out []model.Governorate
	for _, g := range m.govs {
		if activeOnly && !g.IsActive {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockGovRepo) Update(_ context.Context, g *model.Governorate) error {
	if _, ok := m.govs[g.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.govs[g.ID] = g
	return nil
}

func (m *mockGovRepo) BulkUpdateShipping(_ context.Context, ids []uuid.UUID, cost decimal.Decimal, isFree bool) error {
	for _, id := range ids {
		if _, ok := m.govs[id]; !ok {
			return errors.New("bulk shipping update touched 0 rows")
		}
	}
	for _, id := range ids {
		m.govs[id].ShippingCost = cost
		m.govs[id].IsFreeShipping = isFree
	}
	return nil
}

// --- promotions ---

type mockPromotionRepo struct {
	promos map[uuid.UUID]*model.Promotion
}

func newMockPromotionRepo() *mockPromotionRepo {
	return &mockPromotionRepo{promos: make(map[uuid.UUID]*model.Promotion)}
}

func (m *mockPromotionRepo) Create(_ context.Context, p *model.Promotion) error {
	p.ID = uuid.New()
	m.promos[p.ID] = p
	return nil
}

func (m *mockPromotionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, ok := m.promos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPromotionRepo) ListActive(_ context.Context) ([]model.Promotion, error) {
	var out []model.Promotion
	for _, p := range m.promos {
		if p.Status == model.PromotionStatusActive {
			out = append(out, *p)
		}
	}
	// priority order matters for rule precedence
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority > out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockPromotionRepo) List(_ context.Context) ([]model.Promotion, error) {
	var out []model.Promotion
	for _, p := range m.promos {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPromotionRepo) Update(_ context.Context, p *model.Promotion) error {
	if _, ok := m.promos[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.promos[p.ID] = p
	return nil
}

func (m *mockPromotionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.promos, id)
	return nil
}

func (m *mockPromotionRepo) SetProducts(_ context.Context, promoID uuid.UUID, products []model.PromotionProduct) error {
	p, ok := m.promos[promoID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Products = products
	return nil
}

// --- orders ---

type mockOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	nextSeq int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) BeginTx(_ context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (m *mockOrderRepo) NextOrderNumber(_ context.Context, _ pgx.Tx) (string, error) {
	m.nextSeq++
	return fmt.Sprintf("NS-%s-%06d", time.Now().UTC().Format("20060102"), m.nextSeq), nil
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, _ pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) GetStatusForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (model.OrderStatus, error) {
	o, ok := m.orders[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return o.Status, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) SetPaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = status
	return nil
}

func (m *mockOrderRepo) AttachPaymentProof(_ context.Context, id uuid.UUID, url string) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentProofURL = &url
	return nil
}

// --- users ---

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, u := range m.users {
		if u.Role == model.RoleUser {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// --- notifications ---

type mockNotificationRepo struct {
	notifications map[uuid.UUID]*model.Notification
	failFor       map[uuid.UUID]bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{
		notifications: make(map[uuid.UUID]*model.Notification),
		failFor:       make(map[uuid.UUID]bool),
	}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.failFor[n.UserID] {
		return errors.New("insert failed")
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.Notification, int, error) {
	var out []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	if n, ok := m.notifications[id]; ok && n.UserID == userID && !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) UnreadCount(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.notifications, id)
	return nil
}

// --- tickets ---

type mockTicketRepo struct {
	tickets  map[uuid.UUID]*model.SupportTicket
	messages map[uuid.UUID][]model.TicketMessage
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		tickets:  make(map[uuid.UUID]*model.SupportTicket),
		messages: make(map[uuid.UUID][]model.TicketMessage),
	}
}

func (m *mockTicketRepo) Create(_ context.Context, t *model.SupportTicket) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tickets[t.ID] = t
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SupportTicket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTicketRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.SupportTicket, error) {
	var out []model.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTicketRepo) List(_ context.Context, status model.TicketStatus) ([]model.SupportTicket, error) {
	var out []model.SupportTicket
	for _, t := range m.tickets {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTicketRepo) SetStatus(_ context.Context, id uuid.UUID, status model.TicketStatus) error {
	t, ok := m.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = status
	return nil
}

func (m *mockTicketRepo) AddMessage(_ context.Context, msg *model.TicketMessage) error {
	if _, ok := m.tickets[msg.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages[msg.TicketID] = append(m.messages[msg.TicketID], *msg)
	return nil
}

func (m *mockTicketRepo) ListMessages(_ context.Context, ticketID uuid.UUID, includeInternal bool) ([]model.TicketMessage, error) {
	var out []model.TicketMessage
	for _, msg := range m.messages[ticketID] {
		if msg.IsInternal && !includeInternal {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// --- cache and publisher ---

// memCache is an in-process cache.Store for asserting read-through and
// invalidation behavior.
type memCache struct {
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	data, ok := c.entries[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) InvalidatePrefix(_ context.Context, prefix string) error {
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// failingCache serves reads and writes but refuses invalidation, as a
// Redis outage between a write and its invalidation would.
type failingCache struct {
	*memCache
}

func (c *failingCache) InvalidatePrefix(context.Context, string) error {
	return errors.New("connection refused")
}

type mockPublisher struct {
	published []publishedEvent
}

type publishedEvent struct {
	channel string
	event   any
}

func (p *mockPublisher) Publish(_ context.Context, channel string, event any) error {
	p.published = append(p.published, publishedEvent{channel: channel, event: event})
	return nil
}
