package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"
)

const (
	usersIndex    = "users"
	messagesIndex = "messages"
)

// SearchService mirrors users and messages into Meilisearch. The database
// stays the source of truth; callers fall back to SQL when search fails.
type SearchService interface {
	IndexUser(user *entity.User) error
	IndexMessage(message *entity.Message) error
	DeleteUser(id uint) error
	DeleteMessages(ids []uint) error
	SearchUsers(query string, limit int) ([]uint, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	searchable := []string{"username"}
	if _, err := s.client.Index(usersIndex).UpdateSearchableAttributes(&searchable); err != nil {
		logrus.WithError(err).Warn("failed to update users searchable attributes")
	}
	typos := &meilisearch.TypoTolerance{
		Enabled:             false,
		MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{OneTypo: 5, TwoTypos: 9},
	}
	if _, err := s.client.Index(usersIndex).UpdateTypoTolerance(typos); err != nil {
		logrus.WithError(err).Warn("failed to disable users typo tolerance")
	}

	filterable := []any{"user_id"}
	if _, err := s.client.Index(messagesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		logrus.WithError(err).Warn("failed to update messages filterable attributes")
	}

	sortable := []string{"timestamp"}
	if _, err := s.client.Index(messagesIndex).UpdateSortableAttributes(&sortable); err != nil {
		logrus.WithError(err).Warn("failed to update messages sortable attributes")
	}

	logrus.Info("meilisearch indexes initialized")
}

type userDoc struct {
	ID       string `json:"id"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	ImageURL string `json:"image_url"`
}

type messageDoc struct {
	ID        string `json:"id"`
	UserID    uint   `json:"user_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

func (s *meiliSearchService) IndexUser(user *entity.User) error {
	doc := userDoc{
		ID:       docID(user.ID),
		UserID:   user.ID,
		Username: user.Username,
		Bio:      sanitize.Compact(deref(user.Bio)),
		Location: sanitize.Compact(deref(user.Location)),
		ImageURL: user.ImageURL,
	}

	task, err := s.client.Index(usersIndex).AddDocuments([]userDoc{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index user %d: %w", user.ID, err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "task": task.TaskUID}).Debug("indexed user")
	return nil
}

func (s *meiliSearchService) IndexMessage(message *entity.Message) error {
	doc := messageDoc{
		ID:        docID(message.ID),
		UserID:    message.UserID,
		Text:      sanitize.Compact(message.Text),
		Timestamp: message.Timestamp.Unix(),
	}

	task, err := s.client.Index(messagesIndex).AddDocuments([]messageDoc{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index message %d: %w", message.ID, err)
	}
	logrus.WithFields(logrus.Fields{"message_id": message.ID, "task": task.TaskUID}).Debug("indexed message")
	return nil
}

func (s *meiliSearchService) DeleteUser(id uint) error {
	_, err := s.client.Index(usersIndex).DeleteDocument(docID(id))
	return err
}

func (s *meiliSearchService) DeleteMessages(ids []uint) error {
	for _, id := range ids {
		if _, err := s.client.Index(messagesIndex).DeleteDocument(docID(id)); err != nil {
			return fmt.Errorf("delete message %d from index: %w", id, err)
		}
	}
	return nil
}

// SearchUsers returns user ids in relevance order for query on usernames.
func (s *meiliSearchService) SearchUsers(query string, limit int) ([]uint, error) {
	raw, err := s.client.Index(usersIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"user_id"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Hits []struct {
			UserID uint `json:"user_id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, h := range result.Hits {
		ids = append(ids, h.UserID)
	}
	return ids, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
