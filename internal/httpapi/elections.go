package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"ballotbet/internal/model"
)

func electionView(e *model.Election) fiber.Map {
	candidates := make([]fiber.Map, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		candidates = append(candidates, candidateView(&c))
	}

	return fiber.Map{
		"id":           e.ID,
		"title":        e.Title,
		"constituency": e.Constituency,
		"type":         e.Type,
		"candidates":   candidates,
	}
}

func candidateView(c *model.Candidate) fiber.Map {
	return fiber.Map{
		"id":          c.ID,
		"election_id": c.ElectionID,
		"name":        c.Name,
		"party":       c.Party,
		"odds":        c.Odds,
		"image":       c.Image,
	}
}

func (s *Server) handleListElections(c *fiber.Ctx) error {
	elections, err := s.elections.ListElections(c.Context())
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(elections))
	for _, e := range elections {
		items = append(items, electionView(e))
	}

	return jsonSuccess(c, "Elections retrieved", items)
}

func (s *Server) handleGetElection(c *fiber.Ctx) error {
	election, err := s.elections.GetElection(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Election retrieved", electionView(election))
}

type electionRequest struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Constituency string `json:"constituency"`
	Type         string `json:"type"`
}

func (s *Server) handleCreateElection(c *fiber.Ctx) error {
	var req electionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	election := &model.Election{
		ID:           req.ID,
		Title:        req.Title,
		Constituency: req.Constituency,
		Type:         req.Type,
	}
	if err := s.elections.CreateElection(c.Context(), election); err != nil {
		return serviceError(c, err)
	}

	return jsonCreated(c, "Election created", electionView(election))
}

func (s *Server) handleUpdateElection(c *fiber.Ctx) error {
	var req electionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	election := &model.Election{
		ID:           c.Params("id"),
		Title:        req.Title,
		Constituency: req.Constituency,
		Type:         req.Type,
	}
	if err := s.elections.UpdateElection(c.Context(), election); err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Election updated", electionView(election))
}

func (s *Server) handleDeleteElection(c *fiber.Ctx) error {
	if err := s.elections.DeleteElection(c.Context(), c.Params("id")); err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Election deleted", nil)
}

type candidateRequest struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Odds  string `json:"odds"`
	Image string `json:"image"`
}

func (s *Server) handleCreateCandidate(c *fiber.Ctx) error {
	var req candidateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	candidate := &model.Candidate{
		ElectionID: c.Params("id"),
		Name:       req.Name,
		Party:      req.Party,
		Odds:       req.Odds,
		Image:      req.Image,
	}
	created, err := s.elections.CreateCandidate(c.Context(), candidate)
	if err != nil {
		return serviceError(c, err)
	}

	return jsonCreated(c, "Candidate created", candidateView(created))
}

func (s *Server) handleUpdateCandidate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid candidate id")
	}

	var req candidateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	candidate := &model.Candidate{
		ID:    int64(id),
		Name:  req.Name,
		Party: req.Party,
		Odds:  req.Odds,
		Image: req.Image,
	}
	if err := s.elections.UpdateCandidate(c.Context(), candidate); err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Candidate updated", candidateView(candidate))
}

func (s *Server) handleDeleteCandidate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid candidate id")
	}

	if err := s.elections.DeleteCandidate(c.Context(), int64(id)); err != nil {
		return serviceError(c, err)
	}

	return jsonSuccess(c, "Candidate deleted", nil)
}
