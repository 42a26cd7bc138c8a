package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	LocalsKey        = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyEmail         = "user_email"
	KeyFromProtected = "from_protected"
)

// How the current request was authenticated
const (
	AuthMethodNone    = ""
	AuthMethodSession = "session"
	AuthMethodToken   = "token"
)
