package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vionex/vionex-mlm-service/internal/domain"
)

// fakeStore is an in-memory domain.TreeStore. InTx runs the callback on a
// deep copy and swaps it in only on success, so rollback semantics match a
// real transactional store. failOn aborts the named method once to exercise
// mid-transaction failures.
type fakeStore struct {
	mu         sync.Mutex
	members    map[string]*domain.Member
	ranks      map[string]*domain.Rank
	products   map[string]*domain.Product
	configs    map[string]*domain.RebateConfig
	purchases  map[string]*domain.Purchase
	rebates    []*domain.Rebate
	walletTxs  []*domain.WalletTransaction
	failOn     string
	memberSeq  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   make(map[string]*domain.Member),
		ranks:     make(map[string]*domain.Rank),
		products:  make(map[string]*domain.Product),
		configs:   make(map[string]*domain.RebateConfig),
		purchases: make(map[string]*domain.Purchase),
	}
}

func configKey(productID string, level int) string {
	return fmt.Sprintf("%s:%d", productID, level)
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.failOn = f.failOn
	c.memberSeq = f.memberSeq
	for id, m := range f.members {
		cp := *m
		c.members[id] = &cp
	}
	for id, r := range f.ranks {
		cp := *r
		c.ranks[id] = &cp
	}
	for id, p := range f.products {
		cp := *p
		c.products[id] = &cp
	}
	for k, cfg := range f.configs {
		cp := *cfg
		c.configs[k] = &cp
	}
	for id, p := range f.purchases {
		cp := *p
		c.purchases[id] = &cp
	}
	for _, r := range f.rebates {
		cp := *r
		c.rebates = append(c.rebates, &cp)
	}
	for _, tx := range f.walletTxs {
		cp := *tx
		c.walletTxs = append(c.walletTxs, &cp)
	}
	return c
}

func (f *fakeStore) adopt(c *fakeStore) {
	f.members = c.members
	f.ranks = c.ranks
	f.products = c.products
	f.configs = c.configs
	f.purchases = c.purchases
	f.rebates = c.rebates
	f.walletTxs = c.walletTxs
	f.failOn = c.failOn
}

func (f *fakeStore) fail(method string) error {
	if f.failOn == method {
		f.failOn = ""
		return fmt.Errorf("%s: %w: injected failure", method, domain.ErrTransientStore)
	}
	return nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(store domain.TreeStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.clone()
	if err := fn(c); err != nil {
		return err
	}
	f.adopt(c)
	return nil
}

// ----- members -----

func (f *fakeStore) GetMemberByID(ctx context.Context, id string) (*domain.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) GetMemberForUpdate(ctx context.Context, id string) (*domain.Member, error) {
	return f.GetMemberByID(ctx, id)
}

func (f *fakeStore) GetChildrenByUplineID(ctx context.Context, uplineID string) ([]*domain.Member, error) {
	var children []*domain.Member
	for _, m := range f.members {
		if m.UplineID != nil && *m.UplineID == uplineID {
			cp := *m
			children = append(children, &cp)
		}
	}
	// Creation order keeps BFS deterministic.
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			if children[j].CreatedAt.Before(children[i].CreatedAt) {
				children[i], children[j] = children[j], children[i]
			}
		}
	}
	return children, nil
}

func (f *fakeStore) ListMemberIDs(ctx context.Context) ([]string, error) {
	var all []*domain.Member
	for _, m := range f.members {
		all = append(all, m)
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].CreatedAt.Before(all[i].CreatedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	ids := make([]string, len(all))
	for i, m := range all {
		ids[i] = m.ID
	}
	return ids, nil
}

func (f *fakeStore) UpdateMemberRank(ctx context.Context, memberID, rankID string) error {
	if err := f.fail("UpdateMemberRank"); err != nil {
		return err
	}
	m, ok := f.members[memberID]
	if !ok {
		return fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound)
	}
	m.RankID = rankID
	return nil
}

func (f *fakeStore) SetBinaryChild(ctx context.Context, parentID, childID string, leg domain.Position) error {
	if err := f.fail("SetBinaryChild"); err != nil {
		return err
	}
	parent, ok := f.members[parentID]
	if !ok {
		return fmt.Errorf("member %s: %w", parentID, domain.ErrNotFound)
	}
	child, ok := f.members[childID]
	if !ok {
		return fmt.Errorf("member %s: %w", childID, domain.ErrNotFound)
	}
	if leg == domain.PositionLeft {
		parent.LeftLegID = &child.ID
	} else {
		parent.RightLegID = &child.ID
	}
	child.BinaryParentID = &parent.ID
	child.PlacementPosition = leg
	return nil
}

func (f *fakeStore) IncrementWalletBalance(ctx context.Context, memberID string, delta decimal.Decimal) error {
	if err := f.fail("IncrementWalletBalance"); err != nil {
		return err
	}
	m, ok := f.members[memberID]
	if !ok {
		return fmt.Errorf("member %s: %w", memberID, domain.ErrNotFound)
	}
	m.WalletBalance = m.WalletBalance.Add(delta)
	return nil
}

// ----- ranks -----

func (f *fakeStore) GetRankByID(ctx context.Context, id string) (*domain.Rank, error) {
	r, ok := f.ranks[id]
	if !ok {
		return nil, fmt.Errorf("rank %s: %w", id, domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) GetRankByLevel(ctx context.Context, level int) (*domain.Rank, error) {
	for _, r := range f.ranks {
		if r.Level == level {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("rank level %d: %w", level, domain.ErrNotFound)
}

func (f *fakeStore) ListRanks(ctx context.Context) ([]*domain.Rank, error) {
	var ranks []*domain.Rank
	for _, r := range f.ranks {
		cp := *r
		ranks = append(ranks, &cp)
	}
	for i := 0; i < len(ranks); i++ {
		for j := i + 1; j < len(ranks); j++ {
			if ranks[j].Level < ranks[i].Level {
				ranks[i], ranks[j] = ranks[j], ranks[i]
			}
		}
	}
	return ranks, nil
}

// ----- products and configs -----

func (f *fakeStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetRebateConfig(ctx context.Context, productID string, level int) (*domain.RebateConfig, error) {
	cfg, ok := f.configs[configKey(productID, level)]
	if !ok {
		return nil, fmt.Errorf("rebate config %s level %d: %w", productID, level, domain.ErrNotFound)
	}
	cp := *cfg
	return &cp, nil
}

// ----- purchases -----

func (f *fakeStore) GetPurchaseByID(ctx context.Context, id string) (*domain.Purchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPurchaseForUpdate(ctx context.Context, id string) (*domain.Purchase, error) {
	return f.GetPurchaseByID(ctx, id)
}

func (f *fakeStore) CreatePurchase(ctx context.Context, purchase *domain.Purchase) error {
	cp := *purchase
	f.purchases[purchase.ID] = &cp
	return nil
}

func (f *fakeStore) UpdatePurchaseStatus(ctx context.Context, id string, status domain.PurchaseStatus) error {
	p, ok := f.purchases[id]
	if !ok {
		return fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
	}
	p.Status = status
	return nil
}

func (f *fakeStore) MarkPurchaseDisbursed(ctx context.Context, id string, at time.Time) error {
	if err := f.fail("MarkPurchaseDisbursed"); err != nil {
		return err
	}
	p, ok := f.purchases[id]
	if !ok {
		return fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
	}
	if p.DisbursedAt != nil {
		return fmt.Errorf("purchase %s already disbursed: %w", id, domain.ErrAlreadyProcessed)
	}
	t := at
	p.DisbursedAt = &t
	return nil
}

func (f *fakeStore) SumCompletedPurchases(ctx context.Context, buyerIDs []string, from, to time.Time) (decimal.Decimal, error) {
	idSet := make(map[string]bool, len(buyerIDs))
	for _, id := range buyerIDs {
		idSet[id] = true
	}
	total := decimal.Zero
	for _, p := range f.purchases {
		if !idSet[p.BuyerID] || p.Status != domain.PurchaseCompleted {
			continue
		}
		if p.CreatedAt.Before(from) || p.CreatedAt.After(to) {
			continue
		}
		total = total.Add(p.TotalAmount)
	}
	return total, nil
}

// ----- ledger -----

func (f *fakeStore) CreateRebate(ctx context.Context, rebate *domain.Rebate) error {
	if err := f.fail("CreateRebate"); err != nil {
		return err
	}
	for _, existing := range f.rebates {
		if existing.PurchaseID == rebate.PurchaseID &&
			existing.ReceiverID == rebate.ReceiverID &&
			existing.Level == rebate.Level {
			return fmt.Errorf("rebate for purchase %s receiver %s level %d: %w",
				rebate.PurchaseID, rebate.ReceiverID, rebate.Level, domain.ErrAlreadyProcessed)
		}
	}
	cp := *rebate
	f.rebates = append(f.rebates, &cp)
	return nil
}

func (f *fakeStore) GetRebatesByPurchaseID(ctx context.Context, purchaseID string) ([]*domain.Rebate, error) {
	var rebates []*domain.Rebate
	for _, r := range f.rebates {
		if r.PurchaseID == purchaseID {
			cp := *r
			rebates = append(rebates, &cp)
		}
	}
	for i := 0; i < len(rebates); i++ {
		for j := i + 1; j < len(rebates); j++ {
			if rebates[j].Level < rebates[i].Level {
				rebates[i], rebates[j] = rebates[j], rebates[i]
			}
		}
	}
	return rebates, nil
}

func (f *fakeStore) AppendWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	if err := f.fail("AppendWalletTransaction"); err != nil {
		return err
	}
	cp := *tx
	f.walletTxs = append(f.walletTxs, &cp)
	return nil
}

func (f *fakeStore) SumWalletTransactions(ctx context.Context, userID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range f.walletTxs {
		if tx.UserID == userID {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

// ----- fixture helpers -----

func (f *fakeStore) addRank(id string, level int, rank domain.Rank) *domain.Rank {
	rank.ID = id
	rank.Level = level
	if rank.Name == "" {
		rank.Name = id
	}
	f.ranks[id] = &rank
	return &rank
}

func (f *fakeStore) addMember(id string, uplineID *string, rankID string) *domain.Member {
	f.memberSeq++
	m := &domain.Member{
		ID:        id,
		UplineID:  uplineID,
		RankID:    rankID,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.memberSeq) * time.Second),
	}
	f.members[id] = m
	return m
}

func (f *fakeStore) addProduct(id string, price string) *domain.Product {
	p := &domain.Product{
		ID:         id,
		Name:       id,
		Price:      mustDecimal(price),
		PointValue: mustDecimal(price),
	}
	f.products[id] = p
	return p
}

func (f *fakeStore) addPercentConfig(productID string, level int, percent string) {
	f.configs[configKey(productID, level)] = &domain.RebateConfig{
		ID:         fmt.Sprintf("cfg-%s-%d", productID, level),
		ProductID:  productID,
		Level:      level,
		RewardType: domain.RewardPercentage,
		Percentage: mustDecimal(percent),
	}
}

func (f *fakeStore) addFixedConfig(productID string, level int, amount string) {
	f.configs[configKey(productID, level)] = &domain.RebateConfig{
		ID:          fmt.Sprintf("cfg-%s-%d", productID, level),
		ProductID:   productID,
		Level:       level,
		RewardType:  domain.RewardFixed,
		FixedAmount: mustDecimal(amount),
	}
}

func (f *fakeStore) addCompletedPurchase(id, buyerID, productID string, total string, at time.Time) *domain.Purchase {
	p := &domain.Purchase{
		ID:          id,
		BuyerID:     buyerID,
		ProductID:   productID,
		Quantity:    1,
		TotalAmount: mustDecimal(total),
		TotalPV:     mustDecimal(total),
		Status:      domain.PurchaseCompleted,
		CreatedAt:   at,
	}
	f.purchases[id] = p
	return p
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string {
	return &s
}

// fakeCache records stored values and invalidated prefixes.
type fakeCache struct {
	mu           sync.Mutex
	entries      map[string][]byte
	invalidated  []string
	computeCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, factory func() ([]byte, error)) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if payload, ok := c.entries[key]; ok {
		return payload, true, nil
	}
	payload, err := factory()
	if err != nil {
		return nil, false, err
	}
	c.computeCalls++
	c.entries[key] = payload
	return payload, false, nil
}

func (c *fakeCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefix)
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

// fakePublisher records published messages; safe for the async publishes
// the usecases fire.
type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][]domain.Message
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{messages: make(map[string][]domain.Message)}
}

func (p *fakePublisher) Publish(topic string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msgs...)
	return nil
}
