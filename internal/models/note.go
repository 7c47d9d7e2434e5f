package models

import "time"

// Note заметка пользователя. UserID не меняется после создания.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NotePatch частичное обновление заметки, nil означает "не менять".
type NotePatch struct {
	Title      *string
	Content    *string
	IsFavorite *bool
}

// Empty сообщает, что в патче нет ни одного поля.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.IsFavorite == nil
}
