package enums

type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPlus    SubscriptionTier = "plus"
	SubscriptionTierPremium SubscriptionTier = "premium"
)

func ParseSubscriptionTier(raw string) (SubscriptionTier, bool) {
	switch SubscriptionTier(raw) {
	case SubscriptionTierFree, SubscriptionTierPlus, SubscriptionTierPremium:
		return SubscriptionTier(raw), true
	default:
		return "", false
	}
}
