package models

// NoteFilter параметры выборки заметок пользователя.
// Search ищется без учета регистра в заголовке или тексте заметки.
type NoteFilter struct {
	Search       string
	FavoriteOnly bool
}
