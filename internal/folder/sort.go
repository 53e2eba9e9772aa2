package folder

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// SortMailAccounts orders accounts for aggregation: the Unified Mail
// pseudo-account first (if any), then the user's default account, then all
// others by display name under a locale-aware collation that ignores
// tertiary (case) differences. The sort is stable so equal names keep their
// resolution order.
func SortMailAccounts(accounts []models.MailAccount, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	col := collate.New(tag, collate.IgnoreCase)

	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		switch {
		case a.IsUnified() != b.IsUnified():
			return a.IsUnified()
		case a.IsDefault() != b.IsDefault():
			return a.IsDefault()
		default:
			return col.CompareString(a.DisplayName, b.DisplayName) < 0
		}
	})
}
