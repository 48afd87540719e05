package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/search"
)

// entryResponse is the JSON shape of one knowledge entry.
type entryResponse struct {
	Id           uint64  `json:"id"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Category     string  `json:"category,omitempty"`
	IsPinned     bool    `json:"isPinned"`
	Views        int64   `json:"views"`
	HelpfulRatio float32 `json:"helpfulRatio"`
}

type resultResponse struct {
	Entry entryResponse `json:"entry"`
	Score float32       `json:"score"`
}

type searchResponse struct {
	Results        []resultResponse `json:"results"`
	TotalResults   int              `json:"totalResults"`
	ResponseTimeMs int64            `json:"responseTimeMs"`
	Method         string           `json:"method"`
	FallbackUsed   bool             `json:"fallbackUsed"`
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
}

func toEntryResponse(entry *core.KnowledgeEntry) entryResponse {
	return entryResponse{
		Id:           uint64(entry.Id),
		Question:     entry.Question,
		Answer:       entry.Answer,
		Category:     entry.Category,
		IsPinned:     entry.IsPinned,
		Views:        entry.Views,
		HelpfulRatio: entry.HelpfulRatio(),
	}
}

func toEntryResponses(entries []*core.KnowledgeEntry) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i, entry := range entries {
		out[i] = toEntryResponse(entry)
	}
	return out
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	req := search.NewSearchRequest(c.Query("q"))
	req.Category = c.Query("category")
	if limit := c.QueryInt("limit"); limit > 0 {
		req.Limit = limit
	}
	if minScore := c.QueryFloat("minScore"); minScore > 0 {
		req.MinScore = float32(minScore)
	}
	if c.QueryBool("keywordOnly") {
		req.UseSemanticSearch = false
	}

	resp, err := s.engine.Search(c.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrEmptyQuery) {
			return fiber.NewError(fiber.StatusBadRequest, "query must not be empty")
		}
		return err
	}

	out := searchResponse{
		Results:        make([]resultResponse, len(resp.Results)),
		TotalResults:   resp.TotalResults,
		ResponseTimeMs: resp.ResponseTimeMs,
		Method:         resp.Method.String(),
		FallbackUsed:   resp.FallbackUsed,
		Success:        resp.Success,
		Error:          resp.Error,
	}
	for i, result := range resp.Results {
		out.Results[i] = resultResponse{
			Entry: toEntryResponse(result.Entry),
			Score: result.Score,
		}
	}

	return c.JSON(out)
}

type clickRequest struct {
	EntryId  uint64 `json:"entryId"`
	Position int    `json:"position"`
}

func (s *Server) handleClick(c *fiber.Ctx) error {
	var req clickRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.EntryId == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "entryId is required")
	}

	if err := s.engine.RecordClick(c.Context(), core.ID(req.EntryId), req.Position); err != nil {
		s.logger.Warn("failed to record click", "entryId", req.EntryId, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to record click")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)

	stats, err := s.engine.Analytics(c.Context(), days)
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

func (s *Server) handleSuggested(c *fiber.Ctx) error {
	entries, err := s.engine.Suggested(c.Context(), c.Query("category"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": toEntryResponses(entries)})
}

func (s *Server) handleTrending(c *fiber.Ctx) error {
	entries, err := s.engine.Trending(c.Context(), c.QueryInt("days", 7), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": toEntryResponses(entries)})
}
