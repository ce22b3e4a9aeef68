package services

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/google/uuid"
)

const defaultCommentLimit = 50

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// SanitizeComment strips HTML tags and escapes what remains. Comments are the
// only user-authored text rendered back to other users.
func SanitizeComment(s string) string {
	return strings.TrimSpace(html.EscapeString(htmlTags.ReplaceAllString(s, "")))
}

type CommentService struct {
	DB *sql.DB
}

func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{DB: db}
}

// List returns the newest comments first, capped at limit.
func (s *CommentService) List(ctx context.Context, limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultCommentLimit
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, message, created_at FROM comments ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Name, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// Save stores a sanitized comment.
func (s *CommentService) Save(ctx context.Context, name, message string) (*models.Comment, error) {
	name = SanitizeComment(name)
	message = SanitizeComment(message)

	if name == "" || message == "" {
		return nil, fmt.Errorf("name and message are required")
	}

	comment := &models.Comment{ID: uuid.New(), Name: name, Message: message}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO comments (id, name, message) VALUES ($1, $2, $3) RETURNING created_at`,
		comment.ID, comment.Name, comment.Message).Scan(&comment.CreatedAt)
	if err != nil {
		return nil, err
	}

	return comment, nil
}
