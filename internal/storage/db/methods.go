package db

// DisplayName returns the user's full name as shown on the home page.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
