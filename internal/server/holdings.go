package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/model"
)

func (s *Server) listTokens(c *gin.Context) {
	tokens, err := s.ledger.Tokens(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if tokens == nil {
		tokens = []model.Token{}
	}
	c.JSON(http.StatusOK, tokens)
}

func (s *Server) addToken(c *gin.Context) {
	var body struct {
		CoinID string          `json:"coinId"`
		Symbol string          `json:"symbol"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid token payload")
		return
	}
	tok, err := s.ledger.AddToken(c.Request.Context(), userOf(c), ledger.TokenInput{
		CoinID: body.CoinID,
		Symbol: body.Symbol,
		Amount: body.Amount,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tok)
}

func (s *Server) deleteToken(c *gin.Context) {
	if err := s.ledger.DeleteToken(c.Request.Context(), userOf(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type plannedRequest struct {
	transactionRequest
	Recurrence string `json:"recurrence"`
}

func (s *Server) listPlanned(c *gin.Context) {
	items, err := s.planned.List(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []model.PlannedTransaction{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) duePlanned(c *gin.Context) {
	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(c, ledger.ValidationErrors{{Field: "days", Description: "must be a non-negative number"}})
			return
		}
		days = n
	}
	items, err := s.planned.Due(c.Request.Context(), userOf(c), s.now(), days)
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []model.PlannedTransaction{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) addPlanned(c *gin.Context) {
	var body plannedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid planned transaction payload")
		return
	}
	in, err := body.input()
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.planned.Add(c.Request.Context(), userOf(c), model.PlannedTransaction{
		Description: in.Description,
		Type:        in.Type,
		Magnitude:   in.Magnitude,
		Bank:        in.Bank,
		Categories:  in.Categories,
		DueDate:     in.Date,
		Recurrence:  model.Recurrence(body.Recurrence),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) applyPlanned(c *gin.Context) {
	txn, err := s.planned.Apply(c.Request.Context(), userOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (s *Server) deletePlanned(c *gin.Context) {
	if err := s.planned.Delete(c.Request.Context(), userOf(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
