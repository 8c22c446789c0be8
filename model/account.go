package model

// Account is a node in the account hierarchy.
// Level 1 accounts are the children of the implicit root and have no parent.
type Account struct {
	Code       string
	Name       string
	Level      int
	ParentCode string
	FullPath   string
}

// IsRoot reports whether the account sits directly below the implicit root.
func (a *Account) IsRoot() bool {
	return a.ParentCode == ""
}
