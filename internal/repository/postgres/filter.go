package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"payrecon/internal/domain"
)

// whereClause builds the WHERE clause and positional arguments for a filter.
// Paging fields are not part of the clause.
func whereClause(f domain.PaymentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "status = "+next(string(f.Status)))
	}
	if f.PaymentMethod != "" {
		conds = append(conds, "payment_method = "+next(string(f.PaymentMethod)))
	}
	if f.StartDate != nil {
		conds = append(conds, "created_at >= "+next(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "created_at <= "+next(*f.EndDate))
	}
	if f.Search != "" {
		pattern := next("%" + escapeLike(f.Search) + "%")
		search := []string{
			"order_id ILIKE " + pattern,
			"customer_name ILIKE " + pattern,
			"customer_email ILIKE " + pattern,
		}
		if methods := methodsMatching(f.Search); len(methods) > 0 {
			search = append(search, "payment_method = ANY("+next(pq.Array(methods))+")")
		}
		conds = append(conds, "("+strings.Join(search, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// methodsMatching returns the method codes whose display name contains the
// search term, since display names are not stored.
func methodsMatching(search string) []string {
	needle := strings.ToLower(search)
	var methods []string
	for _, m := range []domain.PaymentMethod{
		domain.PaymentMethodBkash,
		domain.PaymentMethodNagad,
		domain.PaymentMethodCard,
		domain.PaymentMethodMobileBanking,
		domain.PaymentMethodInternetBanking,
		domain.PaymentMethodATM,
		domain.PaymentMethodRocket,
		domain.PaymentMethodUpay,
	} {
		if strings.Contains(strings.ToLower(m.DisplayName()), needle) {
			methods = append(methods, string(m))
		}
	}
	return methods
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
