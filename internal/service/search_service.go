package service

import (
	"fmt"

	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/repository"
)

// SearchService translates declarative search requests into store queries
type SearchService struct {
	records *repository.RecordRepository
}

// NewSearchService creates a new search service
func NewSearchService(records *repository.RecordRepository) *SearchService {
	return &SearchService{records: records}
}

// Search decodes a wire request into its typed criteria and executes it.
// Invalid criteria return a validation error; nothing is queried.
func (s *SearchService) Search(req models.SearchRequest) ([]models.RecordResult, error) {
	query, err := models.ParseSearchRequest(req)
	if err != nil {
		return nil, err
	}

	results, err := s.records.Search(query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return results, nil
}
