package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/pkg/webhooksig"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

const testSecret = "whsec_test_secret"

// sign uses the wall clock; the service clock only stamps ledger rows and archive keys.
func sign(body []byte) string {
	return webhooksig.BuildHeader(body, testSecret, time.Now())
}

func TestDuplicateCheckoutDeliveryGrantsCreditsOnce(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := checkoutEvent("evt_1", "cs_1", "u1", 50)
	header := sign(body)

	first, err := svc.HandleWebhook(context.Background(), body, header)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first.Idempotent {
		t.Fatalf("first delivery must not be idempotent")
	}

	second, err := svc.HandleWebhook(context.Background(), body, header)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !second.Idempotent {
		t.Fatalf("second delivery must be idempotent")
	}

	if store.balances["u1"] != 50 {
		t.Fatalf("expected balance 50, got %d", store.balances["u1"])
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(store.transactions))
	}
	txn := store.transactions[0]
	if txn.ExternalRef != "cs_1" || txn.CreditsGranted != 50 || txn.Type != string(enums.TransactionTypeCreditPurchase) {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if _, ok := store.ledger["evt_1"]; !ok {
		t.Fatalf("expected evt_1 in ledger")
	}
}

func TestSameCheckoutSessionUnderNewEventIDIsNotCreditedTwice(t *testing.T) {
	svc, store, _ := newTestService(t)

	for _, id := range []string{"evt_a", "evt_b"} {
		body := checkoutEvent(id, "cs_same", "u1", 10)
		if _, err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
			t.Fatalf("deliver %s: %v", id, err)
		}
	}

	if store.balances["u1"] != 10 {
		t.Fatalf("expected balance 10, got %d", store.balances["u1"])
	}
	if len(store.ledger) != 2 {
		t.Fatalf("both event ids should be recorded, got %d", len(store.ledger))
	}
}

func TestDispatchFailureLeavesLedgerEmptyAndRetrySucceeds(t *testing.T) {
	svc, store, _ := newTestService(t)
	alerts := &recordingNotifier{}
	svc.alerts = alerts
	store.failAddCredits = errors.New("db down")

	body := checkoutEvent("evt_retry", "cs_retry", "u2", 10)
	header := sign(body)

	_, err := svc.HandleWebhook(context.Background(), body, header)
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, ok := store.ledger["evt_retry"]; ok {
		t.Fatalf("failed event must not be recorded")
	}
	if len(store.transactions) != 0 {
		t.Fatalf("failed event must not leave a transaction, got %d", len(store.transactions))
	}
	if len(alerts.messages) != 1 {
		t.Fatalf("expected one failure alert, got %d", len(alerts.messages))
	}

	store.failAddCredits = nil
	result, err := svc.HandleWebhook(context.Background(), body, header)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Idempotent {
		t.Fatalf("retry after failure must be processed")
	}
	if store.balances["u2"] != 10 {
		t.Fatalf("expected balance 10 after retry, got %d", store.balances["u2"])
	}
}

func TestSignatureFailuresAreRejectedBeforeSideEffects(t *testing.T) {
	body := checkoutEvent("evt_sig", "cs_sig", "u3", 10)

	cases := []struct {
		name   string
		header func() string
		secret string
		want   error
	}{
		{
			name:   "wrong secret",
			header: func() string { return webhooksig.BuildHeader(body, "whsec_other", time.Now()) },
			secret: testSecret,
			want:   apperr.ErrUnauthenticated,
		},
		{
			name:   "stale timestamp",
			header: func() string { return webhooksig.BuildHeader(body, testSecret, time.Now().Add(-301*time.Second)) },
			secret: testSecret,
			want:   apperr.ErrUnauthenticated,
		},
		{
			name:   "missing header",
			header: func() string { return "" },
			secret: testSecret,
			want:   apperr.ErrUnauthenticated,
		},
		{
			name:   "secret not configured",
			header: func() string { return sign(body) },
			secret: "",
			want:   apperr.ErrMisconfigured,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			_, err := svc.Process(context.Background(), body, tc.header(), tc.secret)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(store.ledger) != 0 || len(store.balances) != 0 {
				t.Fatalf("rejected delivery must not touch state")
			}
		})
	}
}

func TestTimestampInsideToleranceIsAccepted(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := checkoutEvent("evt_edge", "cs_edge", "u4", 10)

	if _, err := svc.HandleWebhook(context.Background(), body, webhooksig.BuildHeader(body, testSecret, time.Now().Add(-290*time.Second))); err != nil {
		t.Fatalf("expected timestamp inside tolerance to verify: %v", err)
	}
	if store.balances["u4"] != 10 {
		t.Fatalf("expected credits after delivery")
	}
}

func TestMalformedVerifiedBodyIsInvalidInput(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := []byte(`{"id":"evt_bad","type":"checkout.session.completed","data":{"object":{"id":"cs_bad"}}}`)

	_, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(store.ledger) != 0 {
		t.Fatalf("malformed event must not be recorded")
	}
}

func TestUnknownEventTypeIsRecordedAndIgnored(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := []byte(`{"id":"evt_other","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	result, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if err != nil {
		t.Fatalf("handle unknown type: %v", err)
	}
	if !result.Ignored {
		t.Fatalf("expected ignored result")
	}
	if store.ledger["evt_other"] != "customer.created" {
		t.Fatalf("unknown event should still be recorded")
	}
}

func TestUnknownEventWithScalarObjectIsIgnored(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := []byte(`{"id":"evt_radar","type":"radar.early_fraud_warning.created","data":{"object":"ch_1"}}`)

	result, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if err != nil {
		t.Fatalf("handle unknown type with scalar object: %v", err)
	}
	if !result.Ignored {
		t.Fatalf("expected ignored result")
	}
	if _, ok := store.ledger["evt_radar"]; !ok {
		t.Fatalf("unknown event should still be recorded")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	svc, store, now := newTestService(t)
	periodEnd := now.Add(30 * 24 * time.Hour).Unix()

	created := []byte(fmt.Sprintf(`{"id":"evt_sub_1","type":"customer.subscription.created","data":{"object":{"id":"sub_1","status":"active","current_period_end":%d,"metadata":{"user_id":"u5","tier":"premium"}}}}`, periodEnd))
	if _, err := svc.HandleWebhook(context.Background(), created, sign(created)); err != nil {
		t.Fatalf("subscription created: %v", err)
	}
	sub := store.subscriptions["u5"]
	if sub.tier != "premium" || sub.expiresAt == nil || sub.expiresAt.Unix() != periodEnd || sub.ref != "sub_1" {
		t.Fatalf("unexpected subscription after create: %+v", sub)
	}

	balance, err := svc.Balance(context.Background(), "u5")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.SubscriptionTier != enums.SubscriptionTierPremium {
		t.Fatalf("expected premium tier, got %s", balance.SubscriptionTier)
	}

	deleted := []byte(`{"id":"evt_sub_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","metadata":{"user_id":"u5"}}}}`)
	if _, err := svc.HandleWebhook(context.Background(), deleted, sign(deleted)); err != nil {
		t.Fatalf("subscription deleted: %v", err)
	}
	sub = store.subscriptions["u5"]
	if sub.tier != "free" || sub.expiresAt != nil || sub.ref != "" {
		t.Fatalf("unexpected subscription after delete: %+v", sub)
	}
}

func TestLookupEvent(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.ledger["evt_seen"] = EventCheckoutCompleted

	event, err := svc.LookupEvent(context.Background(), "evt_seen")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if event.EventType != EventCheckoutCompleted {
		t.Fatalf("unexpected event: %+v", event)
	}

	if _, err := svc.LookupEvent(context.Background(), "evt_missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.LookupEvent(context.Background(), " "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBalanceTreatsLapsedSubscriptionAsFree(t *testing.T) {
	svc, store, now := newTestService(t)
	expired := now.Add(-time.Minute)
	store.subscriptions["u6"] = fakeSubscription{tier: "plus", expiresAt: &expired}
	store.balances["u6"] = 7

	balance, err := svc.Balance(context.Background(), "u6")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.SubscriptionTier != enums.SubscriptionTierFree || balance.SubscriptionExpiresAt != nil {
		t.Fatalf("expected lapsed subscription to read as free, got %+v", balance)
	}
	if balance.CreditsBalance != 7 {
		t.Fatalf("expected 7 credits, got %d", balance.CreditsBalance)
	}
}

func TestPaymentFailedSendsAlertAfterCommit(t *testing.T) {
	svc, store, _ := newTestService(t)
	alerts := &recordingNotifier{}
	svc.alerts = alerts

	body := []byte(`{"id":"evt_fail","type":"invoice.payment_failed","data":{"object":{"id":"in_1","customer":"cus_9","amount_due":1999,"currency":"usd"}}}`)
	if _, err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("payment failed event: %v", err)
	}
	if len(alerts.messages) != 1 || !strings.Contains(alerts.messages[0], "in_1") {
		t.Fatalf("expected a payment failed alert, got %v", alerts.messages)
	}
	if len(store.balances) != 0 {
		t.Fatalf("payment failure must not change balances")
	}
}

func TestUnstorableGrantIsRecordedAndAlerted(t *testing.T) {
	svc, store, _ := newTestService(t)
	alerts := &recordingNotifier{}
	svc.alerts = alerts

	body := checkoutEvent("evt_huge", "cs_huge", "u10", 3_000_000_000)
	result, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if err != nil {
		t.Fatalf("oversized grant should be accepted: %v", err)
	}
	if result.Idempotent {
		t.Fatalf("first delivery must not be idempotent")
	}
	if _, ok := store.ledger["evt_huge"]; !ok {
		t.Fatalf("oversized grant must still be recorded so it is not redelivered")
	}
	if store.balances["u10"] != 0 || len(store.transactions) != 0 {
		t.Fatalf("oversized grant must not change balances or transactions")
	}
	if len(alerts.messages) != 1 || !strings.Contains(alerts.messages[0], "cs_huge") {
		t.Fatalf("expected an ops alert, got %v", alerts.messages)
	}

	again, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if err != nil || !again.Idempotent {
		t.Fatalf("redelivery should be idempotent, got %+v %v", again, err)
	}
}

func TestProcessedPayloadIsArchived(t *testing.T) {
	svc, _, _ := newTestService(t)
	archive := &recordingArchive{}
	svc.archive = archive

	body := checkoutEvent("evt_arch", "cs_arch", "u7", 10)
	if _, err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	want := "webhooks/2026/03/14/evt_arch.json"
	if archive.keys[want] != string(body) {
		t.Fatalf("expected payload archived under %s, got %v", want, archive.keys)
	}
}

func TestArchiveFailureDoesNotFailDelivery(t *testing.T) {
	svc, store, _ := newTestService(t)
	svc.archive = &recordingArchive{err: errors.New("bucket gone")}

	body := checkoutEvent("evt_arch_fail", "cs_arch_fail", "u8", 10)
	if _, err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("archive failure should not surface: %v", err)
	}
	if store.balances["u8"] != 10 {
		t.Fatalf("expected credits despite archive failure")
	}
}

func TestConcurrentDuplicateDeliveriesGrantOnce(t *testing.T) {
	svc, store, _ := newTestService(t)
	body := checkoutEvent("evt_race", "cs_race", "u9", 50)
	header := sign(body)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.HandleWebhook(context.Background(), body, header); err != nil {
				t.Errorf("concurrent delivery: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.balances["u9"] != 50 {
		t.Fatalf("expected balance 50, got %d", store.balances["u9"])
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(store.transactions))
	}
}

func TestMissingDependenciesAreMisconfigured(t *testing.T) {
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	svc := NewService(Dependencies{}, Config{WebhookSecret: testSecret})
	svc.now = func() time.Time { return now }

	body := checkoutEvent("evt_cfg", "cs_cfg", "u1", 10)
	_, err := svc.HandleWebhook(context.Background(), body, sign(body))
	if !errors.Is(err, apperr.ErrMisconfigured) {
		t.Fatalf("expected misconfigured, got %v", err)
	}
}

func TestStartCreditPurchase(t *testing.T) {
	svc, _, _ := newTestService(t)
	provider := &fakeCheckout{session: CheckoutSession{ID: "cs_new", URL: "https://checkout.example/cs_new"}}
	svc.checkout = provider

	result, err := svc.StartCreditPurchase(context.Background(), "u1", "50")
	if err != nil {
		t.Fatalf("start purchase: %v", err)
	}
	if result.SessionID != "cs_new" || result.PackageID != "credits_50" || result.Credits != 50 {
		t.Fatalf("unexpected checkout result: %+v", result)
	}
	if provider.last.UnitAmount != 1999 || provider.last.UserID != "u1" || provider.last.Currency != "usd" {
		t.Fatalf("unexpected checkout request: %+v", provider.last)
	}

	if _, err := svc.StartCreditPurchase(context.Background(), "u1", "credits_7"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown package, got %v", err)
	}

	provider.err = errors.New("stripe unavailable")
	if _, err := svc.StartCreditPurchase(context.Background(), "u1", "credits_10"); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	svc.checkout = nil
	if _, err := svc.StartCreditPurchase(context.Background(), "u1", "credits_10"); !errors.Is(err, apperr.ErrMisconfigured) {
		t.Fatalf("expected misconfigured without provider, got %v", err)
	}
}

func newTestService(t *testing.T) (*Service, *fakeStore, time.Time) {
	t.Helper()

	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := NewService(Dependencies{
		Tx:           store,
		Ledger:       store,
		Users:        store,
		Transactions: store,
	}, Config{WebhookSecret: testSecret})
	svc.now = func() time.Time { return now }
	return svc, store, now
}

func checkoutEvent(eventID, sessionID, userID string, credits int) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":"checkout.session.completed","created":1773478800,"data":{"object":{"id":%q,"object":"checkout.session","client_reference_id":%q,"amount_total":1999,"currency":"usd","metadata":{"credits":"%d","package_id":"credits_50"}}}}`,
		eventID, sessionID, userID, credits))
}

type fakeSubscription struct {
	tier      string
	expiresAt *time.Time
	ref       string
}

// fakeStore serialises transactions and restores its state when fn fails.
type fakeStore struct {
	mu             sync.Mutex
	ledger         map[string]string
	balances       map[string]int
	subscriptions  map[string]fakeSubscription
	transactions   []pgrepo.TransactionRecord
	failAddCredits error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledger:        make(map[string]string),
		balances:      make(map[string]int),
		subscriptions: make(map[string]fakeSubscription),
	}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := cloneMap(s.ledger)
	balances := cloneMap(s.balances)
	subscriptions := cloneMap(s.subscriptions)
	transactions := append([]pgrepo.TransactionRecord(nil), s.transactions...)

	if err := fn(ctx, nil); err != nil {
		s.ledger = ledger
		s.balances = balances
		s.subscriptions = subscriptions
		s.transactions = transactions
		return err
	}
	return nil
}

func (s *fakeStore) Claim(_ context.Context, _ pgx.Tx, eventID, eventType string, _ time.Time) (bool, error) {
	if _, ok := s.ledger[eventID]; ok {
		return false, nil
	}
	s.ledger[eventID] = eventType
	return true, nil
}

func (s *fakeStore) Get(_ context.Context, eventID string) (pgrepo.WebhookEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventType, ok := s.ledger[eventID]
	if !ok {
		return pgrepo.WebhookEventRecord{}, pgrepo.ErrWebhookEventNotFound
	}
	return pgrepo.WebhookEventRecord{EventID: eventID, EventType: eventType}, nil
}

func (s *fakeStore) AddCredits(_ context.Context, _ pgx.Tx, userID string, credits int, _ time.Time) (int, error) {
	if s.failAddCredits != nil {
		return 0, s.failAddCredits
	}
	s.balances[userID] += credits
	return s.balances[userID], nil
}

func (s *fakeStore) SetSubscription(_ context.Context, _ pgx.Tx, userID, tier string, expiresAt *time.Time, subscriptionID string, _ time.Time) error {
	s.subscriptions[userID] = fakeSubscription{tier: tier, expiresAt: expiresAt, ref: subscriptionID}
	return nil
}

func (s *fakeStore) GetBalance(_ context.Context, userID string) (pgrepo.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := pgrepo.BalanceRecord{UserID: userID, CreditsBalance: s.balances[userID], SubscriptionTier: "free"}
	if sub, ok := s.subscriptions[userID]; ok {
		rec.SubscriptionTier = sub.tier
		rec.SubscriptionExpiresAt = sub.expiresAt
	}
	return rec, nil
}

func (s *fakeStore) Append(_ context.Context, _ pgx.Tx, rec pgrepo.TransactionRecord) (pgrepo.TransactionRecord, error) {
	for _, existing := range s.transactions {
		if existing.ExternalRef == rec.ExternalRef {
			return pgrepo.TransactionRecord{}, pgrepo.ErrDuplicateExternalRef
		}
	}
	rec.ID = fmt.Sprintf("txn_%d", len(s.transactions)+1)
	s.transactions = append(s.transactions, rec)
	return rec, nil
}

func (s *fakeStore) ListForUser(_ context.Context, userID string, limit int) ([]pgrepo.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]pgrepo.TransactionRecord, 0)
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transactions[i].UserID == userID {
			out = append(out, s.transactions[i])
		}
	}
	return out, nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

type recordingArchive struct {
	keys map[string]string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	if a.err != nil {
		return a.err
	}
	if a.keys == nil {
		a.keys = make(map[string]string)
	}
	a.keys[key] = string(body)
	return nil
}

type fakeCheckout struct {
	session CheckoutSession
	err     error
	last    CheckoutRequest
}

func (f *fakeCheckout) CreateCreditCheckout(_ context.Context, req CheckoutRequest) (CheckoutSession, error) {
	f.last = req
	if f.err != nil {
		return CheckoutSession{}, f.err
	}
	return f.session, nil
}
