package permissions

// PermissionScope defines who may use a permission
type PermissionScope string

const (
	ScopePublic PermissionScope = "public" // anonymous visitors
	ScopeAdmin  PermissionScope = "admin"  // the operator, behind basic auth
)

const (
	ComicView   = "comic.view"
	ComicPost   = "comic.post"
	FeedbackDM  = "feedback.dm"
	FeedbackPub = "feedback.comment"
	AssetView   = "asset.view"
	HealthView  = "system.health"

	AdminComicList    = "admin.comic.list"
	AdminComicView    = "admin.comic.view"
	AdminComicDelete  = "admin.comic.delete"
	AdminComicRestore = "admin.comic.restore"
	AdminKomaDelete   = "admin.koma.delete"
	AdminKomaRestore  = "admin.koma.restore"
)

// PermissionDefinition describes a single, specific permission
type PermissionDefinition struct {
	Key         string          `json:"key"`         // unique key, e.g., "comic.post"
	Name        string          `json:"name"`        // friendly name, e.g., "Post Koma"
	Description string          `json:"description"` // what the permission allows
	Scope       PermissionScope `json:"scope"`
}

// PermissionGroupDefinition groups related permissions
type PermissionGroupDefinition struct {
	Key         string                 `json:"key"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Permissions []PermissionDefinition `json:"permissions"`
}

// DefinedPermissionGroups holds all statically defined permission groups and their permissions
var DefinedPermissionGroups = []PermissionGroupDefinition{
	{
		Key:         "comic",
		Name:        "Relay",
		Description: "Reading comics and adding komas to them.",
		Permissions: []PermissionDefinition{
			{Key: ComicView, Name: "View Comics", Description: "Allows viewing the comic list and comic pages.", Scope: ScopePublic},
			{Key: ComicPost, Name: "Post Koma", Description: "Allows uploading a koma, optionally starting a new comic.", Scope: ScopePublic},
			{Key: AssetView, Name: "View Images", Description: "Allows fetching uploaded koma images and thumbnails.", Scope: ScopePublic},
		},
	},
	{
		Key:         "feedback",
		Name:        "Feedback",
		Description: "Messages from visitors.",
		Permissions: []PermissionDefinition{
			{Key: FeedbackDM, Name: "Message Operator", Description: "Allows sending a private message to the operator.", Scope: ScopePublic},
			{Key: FeedbackPub, Name: "Footer Comment", Description: "Allows posting a footer comment.", Scope: ScopePublic},
		},
	},
	{
		Key:         "admin",
		Name:        "Moderation",
		Description: "Operator views and soft delete controls.",
		Permissions: []PermissionDefinition{
			{Key: AdminComicList, Name: "List All Comics", Description: "Allows listing every comic including deleted ones.", Scope: ScopeAdmin},
			{Key: AdminComicView, Name: "Inspect Comic", Description: "Allows viewing every koma of a comic including deleted ones.", Scope: ScopeAdmin},
			{Key: AdminComicDelete, Name: "Delete Comic", Description: "Allows soft deleting a comic and all of its komas.", Scope: ScopeAdmin},
			{Key: AdminComicRestore, Name: "Restore Comic", Description: "Allows restoring a soft deleted comic and its komas.", Scope: ScopeAdmin},
			{Key: AdminKomaDelete, Name: "Delete Koma", Description: "Allows soft deleting a single koma.", Scope: ScopeAdmin},
			{Key: AdminKomaRestore, Name: "Restore Koma", Description: "Allows restoring a single koma.", Scope: ScopeAdmin},
		},
	},
	{
		Key:         "system",
		Name:        "System",
		Description: "Operational endpoints.",
		Permissions: []PermissionDefinition{
			{Key: HealthView, Name: "Health Check", Description: "Allows probing server health.", Scope: ScopePublic},
		},
	},
}

var allPermissionKeysMap map[string]PermissionDefinition

func init() {
	allPermissionKeysMap = make(map[string]PermissionDefinition)
	for _, group := range DefinedPermissionGroups {
		for _, perm := range group.Permissions {
			allPermissionKeysMap[perm.Key] = perm
		}
	}
}

// IsValidPermissionKey checks if a given permission key is defined
func IsValidPermissionKey(key string) bool {
	_, ok := allPermissionKeysMap[key]
	return ok
}

// GetPermissionDefinition retrieves a specific permission definition by its key
func GetPermissionDefinition(key string) (PermissionDefinition, bool) {
	def, ok := allPermissionKeysMap[key]
	return def, ok
}

// RequiresAdmin reports whether the permission is restricted to the operator.
// unknown keys are treated as admin only.
func RequiresAdmin(key string) bool {
	def, ok := GetPermissionDefinition(key)
	return !ok || def.Scope == ScopeAdmin
}
