package shared

// Payment and subscription permissions.
const (
	PermPaymentsView   = "payments.view"
	PermPaymentsRecord = "payments.record"

	PermSubscriptionsView = "subscriptions.view"
)

// BillingScopes lists all permissions related to payments and subscriptions.
func BillingScopes() []string {
	return []string{
		PermPaymentsView,
		PermPaymentsRecord,
		PermSubscriptionsView,
	}
}
