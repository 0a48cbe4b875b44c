// Package suggestion provides the JSON API for reviewing link suggestions.
package suggestion

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/engine"
	"github.com/identilink/identilink/internal/web/handler"
)

// Path is the base path for suggestion review operations.
const Path = handler.APIPath + "/suggestions"

// Service provides the suggestion endpoints.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	engine *engine.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, eng *engine.Service) {
	if app == nil || cfg == nil || db == nil || eng == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.engine = eng

	app.Get(handler.APIPath+"/orgs/:org/suggestions", s.ListForOrg)
	app.Get(handler.APIPath+"/members/:member/suggestions", s.ListForMember)
	app.Post(Path+"/:id/accept", s.Accept)
	app.Post(Path+"/:id/reject", s.Reject)
}

type suggestionResponse struct {
	ID                 string         `json:"id"`
	ExternalIdentityID uint64         `json:"external_identity_id"`
	MemberID           uint64         `json:"member_id"`
	MatchMethod        string         `json:"match_method"`
	Confidence         float64        `json:"confidence"`
	Details            models.JSONMap `json:"details,omitempty"`
	Status             string         `json:"status"`
	ExpiresAt          string         `json:"expires_at"`
}

// ListForOrg returns one page of an organization's pending suggestions.
func (s *Service) ListForOrg(c *fiber.Ctx) error {
	orgID, ok := param(c, "org")
	if !ok {
		return nil
	}

	page, pageSize := handler.Page(c)

	rows, total, err := s.engine.PendingSuggestionsForOrg(c.Context(), orgID, page, pageSize)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"suggestions": responses(rows),
		"total":       total,
		"page":        page,
		"pageSize":    pageSize,
	})
}

// ListForMember lists pending suggestions proposing one member.
func (s *Service) ListForMember(c *fiber.Ctx) error {
	memberID, ok := param(c, "member")
	if !ok {
		return nil
	}

	rows, err := s.engine.PendingSuggestionsForMember(c.Context(), memberID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"suggestions": responses(rows)})
}

type decisionRequest struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

// Accept confirms a pending suggestion and links the identity.
func (s *Service) Accept(c *fiber.Ctx) error {
	return s.decide(c, true)
}

// Reject declines a pending suggestion.
func (s *Service) Reject(c *fiber.Ctx) error {
	return s.decide(c, false)
}

func (s *Service) decide(c *fiber.Ctx, accepted bool) error {
	suggestionID := c.Params("id")
	if suggestionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid suggestion id"})
	}

	var in decisionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.engine.Decide(c.Context(), suggestionID, accepted, in.Reviewer, in.Reason); err != nil {
		return handler.Error(c, err)
	}

	status := "rejected"
	if accepted {
		status = "accepted"
	}

	return c.JSON(fiber.Map{"status": status})
}

func responses(rows []models.LinkSuggestion) []suggestionResponse {
	out := make([]suggestionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, suggestionResponse{
			ID:                 row.PublicID,
			ExternalIdentityID: row.ExternalIdentityID,
			MemberID:           row.MemberID,
			MatchMethod:        string(row.MatchMethod),
			Confidence:         row.Confidence,
			Details:            row.Details,
			Status:             string(row.Status),
			ExpiresAt:          row.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return out
}

// param parses a numeric path parameter. On failure the 400 response is
// already written and the handler must return nil.
func param(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + name + " id"})
		return 0, false
	}

	return id, true
}
