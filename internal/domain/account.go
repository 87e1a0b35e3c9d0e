package domain

type BusinessAccount struct {
	ID       string
	GoogleID string
	Name     string
	UserID   string

	// Populated on reads only.
	ReviewCount int
}
