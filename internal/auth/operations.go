package auth

// Operation names shared by the MCP tool surface and the REST routes.
// Both transports authorize against the same policy table, keyed by these
// names.
const (
	OpRegister = "auth_register"
	OpLogin    = "auth_login"
	OpRefresh  = "auth_refresh"
	OpHealth   = "server_health"

	OpProfile = "user_profile"

	OpCollectionCreate = "collection_create"
	OpCollectionList   = "collection_list"
	OpCollectionRename = "collection_rename"
	OpCollectionDelete = "collection_delete"

	OpCATCreate = "token_create"
	OpCATList   = "token_list"
	OpCATRevoke = "token_revoke"
	OpCATRotate = "token_rotate"

	OpPATCreate = "pat_create"
	OpPATList   = "pat_list"
	OpPATRevoke = "pat_revoke"
	OpPATRotate = "pat_rotate"

	OpDocumentStore  = "document_store"
	OpDocumentSearch = "document_search"
	OpDocumentGet    = "document_get"
	OpDocumentDelete = "document_delete"

	OpAdminListUsers  = "admin_list_users"
	OpAdminUpdateUser = "admin_update_user"
	OpAdminDeleteUser = "admin_delete_user"
)

// DefaultPolicy returns the policy table for the full operation surface.
// Anything not listed here authorizes as admin-only.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string]AccessLevel{
		OpRegister: LevelPublic,
		OpLogin:    LevelPublic,
		OpRefresh:  LevelPublic,
		OpHealth:   LevelPublic,

		OpProfile: LevelUserOrPAT,

		OpCollectionCreate: LevelUserOrPAT,
		OpCollectionList:   LevelUserOrPAT,
		OpCollectionRename: LevelUserOrPAT,
		OpCollectionDelete: LevelUserOrPAT,

		OpCATCreate: LevelUserOrPAT,
		OpCATList:   LevelUserOrPAT,
		OpCATRevoke: LevelUserOrPAT,
		OpCATRotate: LevelUserOrPAT,

		OpPATCreate: LevelUserOrPAT,
		OpPATList:   LevelUserOrPAT,
		OpPATRevoke: LevelUserOrPAT,
		OpPATRotate: LevelUserOrPAT,

		OpDocumentStore:  LevelAPIKeyOrUserOrPAT,
		OpDocumentSearch: LevelAPIKeyOrUserOrPAT,
		OpDocumentGet:    LevelAPIKeyOrUserOrPAT,
		OpDocumentDelete: LevelAPIKeyOrUserOrPAT,

		OpAdminListUsers:  LevelAdmin,
		OpAdminUpdateUser: LevelAdmin,
		OpAdminDeleteUser: LevelAdmin,
	}, OpAdminUpdateUser)
}
