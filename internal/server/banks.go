package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/ledger"
)

type bankRequest struct {
	Name           string          `json:"name"`
	PrimaryColor   string          `json:"primaryColor"`
	SecondaryColor string          `json:"secondaryColor"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	OpenedOn       string          `json:"openedOn"`
}

func (r bankRequest) input() (ledger.BankInput, error) {
	opened, err := parseDay("opened_on", r.OpenedOn)
	if err != nil {
		return ledger.BankInput{}, err
	}
	return ledger.BankInput{
		Name:           r.Name,
		PrimaryColor:   r.PrimaryColor,
		SecondaryColor: r.SecondaryColor,
		OpeningBalance: r.OpeningBalance,
		OpenedOn:       opened,
	}, nil
}

func (s *Server) listBanks(c *gin.Context) {
	banks, err := s.store.ListBanks(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, banks)
}

func (s *Server) createBank(c *gin.Context) {
	var body bankRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid bank payload")
		return
	}
	in, err := body.input()
	if err != nil {
		s.fail(c, err)
		return
	}
	bank, err := s.ledger.CreateBank(c.Request.Context(), userOf(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, bank)
}

func (s *Server) renameBank(c *gin.Context) {
	var body bankRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid bank payload")
		return
	}
	bank, err := s.ledger.RenameBank(c.Request.Context(), userOf(c), c.Param("id"), ledger.BankInput{
		Name:           body.Name,
		PrimaryColor:   body.PrimaryColor,
		SecondaryColor: body.SecondaryColor,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bank)
}

func (s *Server) deleteBank(c *gin.Context) {
	n, err := s.ledger.DeleteBank(c.Request.Context(), userOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedTransactions": n})
}

func (s *Server) recomputeBank(c *gin.Context) {
	bank, err := s.ledger.Recompute(c.Request.Context(), userOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bank)
}

func (s *Server) checkBanks(c *gin.Context) {
	drifts, err := s.ledger.Check(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	type driftJSON struct {
		Bank       string          `json:"bank"`
		Stored     decimal.Decimal `json:"stored"`
		Computed   decimal.Decimal `json:"computed"`
		Difference decimal.Decimal `json:"difference"`
	}
	out := make([]driftJSON, 0, len(drifts))
	for _, d := range drifts {
		out = append(out, driftJSON{Bank: d.Bank.ID, Stored: d.Bank.Balance, Computed: d.Computed, Difference: d.Difference()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) reassignBank(c *gin.Context) {
	var body struct {
		To string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "target bank is required")
		return
	}
	n, err := s.ledger.Reassign(c.Request.Context(), userOf(c), c.Param("id"), body.To)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": n})
}

type categoryRequest struct {
	Name          string          `json:"name"`
	Hideable      bool            `json:"hideable"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

func (r categoryRequest) input() ledger.CategoryInput {
	return ledger.CategoryInput{Name: r.Name, Hideable: r.Hideable, MonthlyBudget: r.MonthlyBudget}
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.store.ListCategories(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) createCategory(c *gin.Context) {
	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid category payload")
		return
	}
	cat, err := s.ledger.CreateCategory(c.Request.Context(), userOf(c), body.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c *gin.Context) {
	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid category payload")
		return
	}
	cat, err := s.ledger.UpdateCategory(c.Request.Context(), userOf(c), c.Param("id"), body.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c *gin.Context) {
	n, err := s.ledger.DeleteCategory(c.Request.Context(), userOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"untagged": n})
}
