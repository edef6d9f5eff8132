package shared

// AllPermissions returns the complete permission catalog. The catalog is the
// single source of truth: guard middleware references these names and the
// seeder creates one permission row per entry. Permissions are never created
// at evaluation time.
func AllPermissions() []string {
	var all []string
	all = append(all, CoreScopes()...)
	all = append(all, AdScopes()...)
	all = append(all, MessagingScopes()...)
	all = append(all, BillingScopes()...)
	return all
}
