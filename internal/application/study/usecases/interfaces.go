package usecases

// NotesRenderer turns markdown notes into HTML safe for the report view.
type NotesRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
}
