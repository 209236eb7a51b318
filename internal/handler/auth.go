package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/utils"
)

type signupRequest struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

type tokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// Signup 注册并发送确认码
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.Auth.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, gin.H{"username": user.Username, "email": user.Email})
}

// Token 用确认码换取访问令牌
func (h *Handler) Token(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.Auth.Confirm(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"token": token})
}
