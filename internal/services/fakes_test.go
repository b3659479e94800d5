package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories. The *gorm.DB argument is ignored; tests still
// hand the services a sqlmock-backed handle so BEGIN/COMMIT/ROLLBACK are
// asserted.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	// beforeInsert runs once inside Create, under the lock, to stage a
	// competing row.
	beforeInsert func(users map[string]*models.User)
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hook := r.beforeInsert; hook != nil {
		r.beforeInsert = nil
		hook(r.users)
	}
	for _, u := range r.users {
		if sameIdentity(u.Email, user.Email) || sameIdentity(u.Phone, user.Phone) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func sameIdentity(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByPhone(_ *gorm.DB, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) LockByID(db *gorm.DB, id string) (*models.User, error) {
	return r.FindByID(db, id)
}

func (r *fakeUserRepo) UpdateStatus(_ *gorm.DB, id string, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) MarkPhoneVerified(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PhoneVerified = true
	return nil
}

func (r *fakeUserRepo) List(_ *gorm.DB, page, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Count(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) get(id string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.Profile{}}
}

func (r *fakeProfileRepo) Create(_ *gorm.DB, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) FindByUserID(_ *gorm.DB, userID string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) Update(_ *gorm.DB, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []models.LoginActivity
}

func (r *fakeActivityRepo) Create(_ *gorm.DB, a *models.LoginActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *a)
	return nil
}

func (r *fakeActivityRepo) successes() (ok, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

type fakeMembershipRepo struct {
	mu   sync.Mutex
	rows []*models.Membership
}

func (r *fakeMembershipRepo) Create(_ *gorm.DB, m *models.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now()
	cp := *m
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeMembershipRepo) FindActive(_ *gorm.DB, userID string) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		m := r.rows[i]
		if m.UserID == userID && m.Status == models.MembershipStatusActive {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) MarkExpired(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == id {
			m.Status = models.MembershipStatusExpired
		}
	}
	return nil
}

func (r *fakeMembershipRepo) CancelActive(_ *gorm.DB, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.rows {
		if m.UserID == userID && m.Status == models.MembershipStatusActive {
			m.Status = models.MembershipStatusCancelled
			n++
		}
	}
	return n, nil
}

func (r *fakeMembershipRepo) CountActive(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.rows {
		if m.Status == models.MembershipStatusActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeMembershipRepo) ActivePlans(_ *gorm.DB, userIDs []string) (map[string]models.MembershipPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]models.MembershipPlan{}
	for _, m := range r.rows {
		if m.Status == models.MembershipStatusActive {
			out[m.UserID] = m.Plan
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) LapsedUserIDs(_ *gorm.DB, now time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.rows {
		if m.Status == models.MembershipStatusActive && m.IsLapsed(now) && len(out) < limit {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) forUser(userID string) []models.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Membership
	for _, m := range r.rows {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
	images   map[string][]string
	filter   repositories.ListingFilter
}

func newFakeListingRepo(listings ...*models.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: map[string]*models.Listing{}, images: map[string][]string{}}
	for _, l := range listings {
		r.listings[l.ID] = l
	}
	return r
}

func (r *fakeListingRepo) Create(_ *gorm.DB, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) FindByID(_ *gorm.DB, id string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, repositories.ErrListingNotFound
	}
	cp := *l
	for _, url := range r.images[id] {
		cp.Images = append(cp.Images, models.ListingImage{ListingID: id, ImageURL: url})
	}
	return &cp, nil
}

func (r *fakeListingRepo) FindDetailed(db *gorm.DB, id string) (*models.Listing, error) {
	return r.FindByID(db, id)
}

func (r *fakeListingRepo) LockByID(db *gorm.DB, id string) (*models.Listing, error) {
	return r.FindByID(db, id)
}

func (r *fakeListingRepo) Update(_ *gorm.DB, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	cp.Images = nil
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) ReplaceImages(_ *gorm.DB, listingID string, urls []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[listingID] = append([]string(nil), urls...)
	return nil
}

func (r *fakeListingRepo) Delete(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return repositories.ErrListingNotFound
	}
	delete(r.listings, id)
	delete(r.images, id)
	return nil
}

func (r *fakeListingRepo) UpdateStatus(_ *gorm.DB, id string, status models.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return repositories.ErrListingNotFound
	}
	l.Status = status
	return nil
}

func (r *fakeListingRepo) SetFeatured(_ *gorm.DB, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return repositories.ErrListingNotFound
	}
	l.IsFeatured = true
	l.FeaturedUntil = &until
	return nil
}

func (r *fakeListingRepo) ClearExpiredFeatured(_ *gorm.DB, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.listings {
		if l.IsFeatured && l.FeaturedUntil != nil && l.FeaturedUntil.Before(now) {
			l.IsFeatured = false
			l.FeaturedUntil = nil
			n++
		}
	}
	return n, nil
}

func (r *fakeListingRepo) CountBySellerAndStatuses(_ *gorm.DB, sellerID string, statuses []models.ListingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.listings {
		if l.SellerID != sellerID {
			continue
		}
		for _, s := range statuses {
			if l.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *fakeListingRepo) CountBySellers(_ *gorm.DB, sellerIDs []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, l := range r.listings {
		out[l.SellerID]++
	}
	return out, nil
}

func (r *fakeListingRepo) Count(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.listings)), nil
}

func (r *fakeListingRepo) CountByStatus(_ *gorm.DB, status models.ListingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.listings {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeListingRepo) FindBySeller(_ *gorm.DB, sellerID string) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		if l.SellerID == sellerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) FindByStatus(_ *gorm.DB, status models.ListingStatus, page, limit int) ([]models.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Listing
	for _, l := range r.listings {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeListingRepo) Search(_ *gorm.DB, filter repositories.ListingFilter) ([]models.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	var out []models.Listing
	for _, l := range r.listings {
		if l.Status != models.ListingStatusApproved {
			continue
		}
		if filter.ListingRole != "" && l.ListingRole != filter.ListingRole {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeListingRepo) get(id string) *models.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listings[id]
}

func (r *fakeListingRepo) lastFilter() repositories.ListingFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[string]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: map[string]*models.Offer{}}
}

func (r *fakeOfferRepo) Create(_ *gorm.DB, o *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cp := *o
	cp.Listing = nil
	r.offers[o.ID] = &cp
	return nil
}

func (r *fakeOfferRepo) FindByID(_ *gorm.DB, id string) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, repositories.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) transition(id string, to models.OfferStatus) int64 {
	o, ok := r.offers[id]
	if !ok || o.Status != models.OfferStatusPending {
		return 0
	}
	o.Status = to
	return 1
}

func (r *fakeOfferRepo) AcceptPending(_ *gorm.DB, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(id, models.OfferStatusAccepted), nil
}

func (r *fakeOfferRepo) RejectPending(_ *gorm.DB, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(id, models.OfferStatusRejected), nil
}

func (r *fakeOfferRepo) HasAccepted(_ *gorm.DB, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.ListingID == listingID && o.Status == models.OfferStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOfferRepo) RejectPendingSiblings(_ *gorm.DB, listingID, acceptedID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.offers {
		if o.ListingID == listingID && id != acceptedID {
			n += r.transition(id, models.OfferStatusRejected)
		}
	}
	return n, nil
}

func (r *fakeOfferRepo) FindByListing(_ *gorm.DB, listingID string) ([]models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Offer
	for _, o := range r.offers {
		if o.ListingID == listingID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) FindByBuyer(_ *gorm.DB, buyerID string) ([]models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Offer
	for _, o := range r.offers {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) CountByListings(_ *gorm.DB, listingIDs []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, o := range r.offers {
		out[o.ListingID]++
	}
	return out, nil
}

func (r *fakeOfferRepo) get(id string) *models.Offer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offers[id]
}

func (r *fakeOfferRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.offers)
}

type fakeChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat
	messages []models.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: map[string]*models.Chat{}}
}

func (r *fakeChatRepo) Create(_ *gorm.DB, c *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	r.chats[c.ID] = &cp
	return nil
}

func (r *fakeChatRepo) FindByID(_ *gorm.DB, id string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, repositories.ErrChatNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChatRepo) FindByListingAndBuyer(_ *gorm.DB, listingID, buyerID string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if c.ListingID == listingID && c.BuyerID == buyerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrChatNotFound
}

func (r *fakeChatRepo) FindByUser(_ *gorm.DB, userID string) ([]models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Chat
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *fakeChatRepo) TouchLastMessage(_ *gorm.DB, chatID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatID]; ok {
		c.LastMessageAt = at
	}
	return nil
}

func (r *fakeChatRepo) CountByListings(_ *gorm.DB, listingIDs []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, c := range r.chats {
		out[c.ListingID]++
	}
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(_ *gorm.DB, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *fakeChatRepo) RecentMessages(_ *gorm.DB, chatID string, limit int) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeChatRepo) LastMessages(_ *gorm.DB, chatIDs []string) (map[string]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]models.Message{}
	for _, m := range r.messages {
		out[m.ChatID] = m
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	events   []models.PaymentEvent
}

func newFakePaymentRepo(payments ...*models.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{payments: map[string]*models.Payment{}}
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return r
}

func (r *fakePaymentRepo) Create(_ *gorm.DB, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) LockByOrderID(_ *gorm.DB, orderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayOrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *fakePaymentRepo) MarkSuccess(_ *gorm.DB, id, gatewayPaymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.Status = models.PaymentStatusSuccess
	p.GatewayPaymentID = &gatewayPaymentID
	return nil
}

func (r *fakePaymentRepo) MarkFailed(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.Status = models.PaymentStatusFailed
	return nil
}

func (r *fakePaymentRepo) FindByUser(_ *gorm.DB, userID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Recent(_ *gorm.DB, limit int) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePaymentRepo) CreateEvent(_ *gorm.DB, e *models.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakePaymentRepo) get(id string) *models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[id]
}

func (r *fakePaymentRepo) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeAdminLogRepo struct {
	mu      sync.Mutex
	entries []models.AdminLog
}

func (r *fakeAdminLogRepo) Create(_ *gorm.DB, e *models.AdminLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAdminLogRepo) List(_ *gorm.DB, page, limit int) ([]models.AdminLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AdminLog(nil), r.entries...), int64(len(r.entries)), nil
}

func (r *fakeAdminLogRepo) all() []models.AdminLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AdminLog(nil), r.entries...)
}

// fakeMembershipService serves a fixed plan and records upgrades.
type fakeMembershipService struct {
	mu       sync.Mutex
	plan     models.MembershipPlan
	upgrades []models.MembershipPlan
	started  []models.Membership
}

func (f *fakeMembershipService) GetCurrentMembership(_ context.Context, _ *gorm.DB, userID string) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Membership{UserID: userID, Plan: f.plan, Status: models.MembershipStatusActive}, nil
}

func (f *fakeMembershipService) Upgrade(_ context.Context, _ *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plan = plan
	f.upgrades = append(f.upgrades, plan)
	return &models.Membership{UserID: userID, Plan: plan, Status: models.MembershipStatusActive, EndDate: endDate}, nil
}

func (f *fakeMembershipService) GetLimits(_ context.Context, _ *gorm.DB, _ string) (*dto.PlanLimits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	limits := LimitsFor(f.plan)
	return &limits, nil
}

func (f *fakeMembershipService) StartMembership(_ context.Context, _ *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := models.Membership{UserID: userID, Plan: plan, Status: models.MembershipStatusActive, EndDate: endDate}
	f.started = append(f.started, m)
	return &m, nil
}

func (f *fakeMembershipService) upgradeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upgrades)
}

type moderationNote struct {
	sellerID string
	status   models.ListingStatus
	reason   string
}

type recordingNotifier struct {
	mu        sync.Mutex
	moderated []moderationNote
	accepted  []string
}

func (n *recordingNotifier) ListingModerated(_ context.Context, seller *models.User, _ *models.Listing, status models.ListingStatus, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.moderated = append(n.moderated, moderationNote{sellerID: seller.ID, status: status, reason: reason})
}

func (n *recordingNotifier) OfferAccepted(_ context.Context, buyer *models.User, _ *models.Listing, offer *models.Offer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, offer.ID)
}

type pushedEvent struct {
	userID string
	event  interface{}
}

type recordingChatNotifier struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (n *recordingChatNotifier) NotifyUser(userID string, event interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, pushedEvent{userID: userID, event: event})
}

func (n *recordingChatNotifier) pushed() []pushedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]pushedEvent(nil), n.events...)
}

func newUser(id string, role models.UserRole) *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: id},
		Role:      role,
		Status:    models.UserStatusActive,
	}
}

func approvedListing(id, sellerID string, negotiable bool) *models.Listing {
	return &models.Listing{
		BaseModel:    models.BaseModel{ID: id},
		SellerID:     sellerID,
		Status:       models.ListingStatusApproved,
		ListingRole:  models.ListingRoleSupplier,
		MetalType:    models.MetalSteel,
		Title:        "HR coil",
		Price:        50000,
		Quantity:     50,
		Unit:         "MT",
		IsNegotiable: negotiable,
	}
}
