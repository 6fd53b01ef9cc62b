package rules

import "strings"

type CreditPackage struct {
	ID          string
	Credits     int
	PriceCents  int64
	DisplayName string
}

var creditPackages = map[string]CreditPackage{
	"credits_10":  {ID: "credits_10", Credits: 10, PriceCents: 499, DisplayName: "10 Vibe Credits"},
	"credits_50":  {ID: "credits_50", Credits: 50, PriceCents: 1999, DisplayName: "50 Vibe Credits"},
	"credits_120": {ID: "credits_120", Credits: 120, PriceCents: 3999, DisplayName: "120 Vibe Credits"},
}

var creditPackageAliases = map[string]string{
	"10":          "credits_10",
	"50":          "credits_50",
	"120":         "credits_120",
	"credits10":   "credits_10",
	"credits50":   "credits_50",
	"credits120":  "credits_120",
	"credits-10":  "credits_10",
	"credits-50":  "credits_50",
	"credits-120": "credits_120",
}

func LookupCreditPackage(raw string) (CreditPackage, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := creditPackageAliases[key]; ok {
		key = alias
	}
	pkg, ok := creditPackages[key]
	return pkg, ok
}

func CreditPackages() []CreditPackage {
	return []CreditPackage{
		creditPackages["credits_10"],
		creditPackages["credits_50"],
		creditPackages["credits_120"],
	}
}
