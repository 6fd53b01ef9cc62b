package expiry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunDowngradesLapsedSubscriptions(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

	users := &fakeExpirer{
		subs: map[string]fakeSub{
			"lapsed": {tier: "plus", expiresAt: ptrTime(now.Add(-time.Minute))},
			"active": {tier: "premium", expiresAt: ptrTime(now.Add(time.Hour))},
			"free":   {tier: "free"},
		},
	}

	job := New(users, nil)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run expiry job: %v", err)
	}

	if users.subs["lapsed"].tier != "free" || users.subs["lapsed"].expiresAt != nil {
		t.Fatalf("expected lapsed subscription downgraded, got %+v", users.subs["lapsed"])
	}
	if users.subs["active"].tier != "premium" {
		t.Fatalf("expected active subscription to remain")
	}
	if !users.lastNow.Equal(now) {
		t.Fatalf("expected job clock to be passed through, got %s", users.lastNow)
	}
}

func TestRunWrapsStoreErrors(t *testing.T) {
	job := New(&fakeExpirer{err: errors.New("db down")}, nil)
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error from store")
	}
}

func TestRunWithoutStoreIsNoop(t *testing.T) {
	if err := New(nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

type fakeSub struct {
	tier      string
	expiresAt *time.Time
}

type fakeExpirer struct {
	subs    map[string]fakeSub
	lastNow time.Time
	err     error
}

func (f *fakeExpirer) ExpireSubscriptions(_ context.Context, now time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.lastNow = now
	var affected int64
	for id, sub := range f.subs {
		if sub.expiresAt != nil && !sub.expiresAt.After(now) {
			f.subs[id] = fakeSub{tier: "free"}
			affected++
		}
	}
	return affected, nil
}

func ptrTime(v time.Time) *time.Time {
	value := v.UTC()
	return &value
}
