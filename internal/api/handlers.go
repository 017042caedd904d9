package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/auth"
	"github.com/ashendes/welcome-home/internal/catalog"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/orders"
)

const msgBadPayload = "Invalid request body."

func (s *Server) listGroceries(c *gin.Context) {
	items, err := s.catalog.Products(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err, catalog.LoadFailedMessage)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) circuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"catalog_circuit": gin.H{
			"name":  "catalog",
			"state": s.catalog.BreakerState(),
		},
	})
}

func (s *Server) createOrder(c *gin.Context) {
	ownerID, signedIn := auth.UserID(c)
	if s.opts.OrdersRequireAuth && !signedIn {
		respondError(c, apperrors.Auth(orders.MsgSignInRequired), orders.MsgSignInRequired)
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := msgBadPayload
		if errors.Is(err, models.ErrAmountOutOfRange) {
			msg = models.MsgAmountOutOfRange
		}
		respondError(c, apperrors.Validation(msg), msg)
		return
	}

	order, err := s.orders.Create(c.Request.Context(), req, ownerID)
	if err != nil {
		respondError(c, err, orders.MsgCreateFailed)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) myOrders(c *gin.Context) {
	userID, _ := auth.UserID(c)
	list, err := s.orders.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, orders.MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getOrder(c *gin.Context) {
	userID, _ := auth.UserID(c)
	order, err := s.orders.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, orders.MsgFetchFailed)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation(auth.MsgCredentialsRequired), auth.MsgCredentialsRequired)
		return
	}
	user, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, auth.MsgRegisterFailed)
		return
	}
	if err := s.auth.StartSession(c, user); err != nil {
		respondError(c, err, auth.MsgRegisterFailed)
		return
	}
	c.JSON(http.StatusCreated, user.Public())
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation(auth.MsgCredentialsRequired), auth.MsgCredentialsRequired)
		return
	}
	user, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, auth.MsgLoginFailed)
		return
	}
	if err := s.auth.StartSession(c, user); err != nil {
		respondError(c, err, auth.MsgLoginFailed)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (s *Server) logout(c *gin.Context) {
	s.auth.EndSession(c)
	c.JSON(http.StatusOK, gin.H{"message": auth.MsgLoggedOut})
}

func (s *Server) me(c *gin.Context) {
	userID, _ := auth.UserID(c)
	user, err := s.auth.User(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, auth.MsgNotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}
