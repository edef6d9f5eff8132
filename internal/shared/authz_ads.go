package shared

// Advertisement and catalog permissions.
const (
	PermAdsView      = "ads.view"
	PermAdsCreate    = "ads.create"
	PermAdsPublish   = "ads.publish"
	PermAdsEditAny   = "ads.edit.any"
	PermAdsDeleteAny = "ads.delete.any"

	PermCategoriesEdit = "categories.edit"
)

// AdScopes lists all permissions related to advertisements and categories.
func AdScopes() []string {
	return []string{
		PermAdsView,
		PermAdsCreate,
		PermAdsPublish,
		PermAdsEditAny,
		PermAdsDeleteAny,
		PermCategoriesEdit,
	}
}
