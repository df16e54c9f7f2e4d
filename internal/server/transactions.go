package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finboard/internal/model"
	"github.com/cleared-dev/finboard/internal/store"
)

// transactionRequest is what a form submits. Amount is the unsigned
// magnitude; the sign comes from Type.
type transactionRequest struct {
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Bank        string          `json:"bank"`
	Categories  []string        `json:"categories"`
	Date        string          `json:"date"`
}

func (r transactionRequest) input() (model.TransactionInput, error) {
	d, err := parseDay("date", r.Date)
	if err != nil {
		return model.TransactionInput{}, err
	}
	return model.TransactionInput{
		Description: r.Description,
		Type:        model.TransactionType(r.Type),
		Magnitude:   r.Amount,
		Bank:        r.Bank,
		Categories:  r.Categories,
		Date:        d,
	}, nil
}

func (s *Server) listTransactions(c *gin.Context) {
	from, err := parseDay("from", c.Query("from"))
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := parseDay("to", c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}
	q := store.TransactionsOf(userOf(c)).Between(from, to)
	if bank := c.Query("bank"); bank != "" {
		q = q.InBank(bank)
	}
	if cats := c.QueryArray("category"); len(cats) > 0 {
		q = q.WithAnyCategory(cats...)
	}

	ctx := c.Request.Context()
	total, err := s.store.CountTransactions(ctx, q)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, pageSize := pageParams(c)
	// Past the last page reads as the last page.
	page = max(1, min(page, pageCount(int64(total), pageSize)))
	txns, err := s.store.QueryTransactions(ctx, q.Page(pageSize, (page-1)*pageSize))
	if err != nil {
		s.fail(c, err)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	c.JSON(http.StatusOK, paginated(txns, int64(total), page, pageSize))
}

func (s *Server) createTransaction(c *gin.Context) {
	var body transactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid transaction payload")
		return
	}
	in, err := body.input()
	if err != nil {
		s.fail(c, err)
		return
	}
	txn, err := s.ledger.Create(c.Request.Context(), userOf(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (s *Server) updateTransaction(c *gin.Context) {
	var body transactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid transaction payload")
		return
	}
	in, err := body.input()
	if err != nil {
		s.fail(c, err)
		return
	}
	txn, err := s.ledger.Update(c.Request.Context(), userOf(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.ledger.Delete(c.Request.Context(), userOf(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transferRequest struct {
	Description       string           `json:"description"`
	Date              string           `json:"date"`
	OriginBank        string           `json:"originBank"`
	DestinationBank   string           `json:"destinationBank"`
	OriginAmount      decimal.Decimal  `json:"originAmount"`
	DestinationAmount *decimal.Decimal `json:"destinationAmount"`
	Categories        []string         `json:"categories"`
}

func (s *Server) createTransfer(c *gin.Context) {
	var body transferRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid transfer payload")
		return
	}
	d, err := parseDay("date", body.Date)
	if err != nil {
		s.fail(c, err)
		return
	}
	legs, err := s.ledger.Transfer(c.Request.Context(), userOf(c), model.Transfer{
		Description:       body.Description,
		Date:              d,
		OriginBank:        body.OriginBank,
		DestinationBank:   body.DestinationBank,
		OriginAmount:      body.OriginAmount,
		DestinationAmount: body.DestinationAmount,
		Categories:        body.Categories,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, legs)
}
