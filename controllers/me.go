package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /auth/me
func Me(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in_as": user.Email})
}
