package web

// DeleteButtonView holds data for the delete button template fragment
type DeleteButtonView struct {
	URL            string // e.g., "/categories/abc123/delete"
	ConfirmMessage string // e.g., "Delete this category and all its links?"
	ButtonText     string // e.g., "Delete"
}
