package component

// Form field names, shared with the request bindings.
const (
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldCSRF      = "_csrf"
)

// Form element IDs.
const (
	IDSignUpForm      = "signup-form"
	IDSignInForm      = "signin-form"
	IDCredentialsForm = "credentials-form"
	IDGreeting        = "greeting"
)

// Routes linked from the pages.
const (
	PathIndex    = "/"
	PathHome     = "/home"
	PathSignUp   = "/signup"
	PathSignIn   = "/signin"
	PathSignOut  = "/signout"
	PathUsers    = "/users"
	PathSessions = "/sessions"
	PathMe       = "/me"
)
