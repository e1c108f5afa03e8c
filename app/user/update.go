package user

import (
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type updateBody struct {
	Name  *string `json:"name" form:"name"`
	Image *string `json:"image" form:"image"`
}

func UpdateUser(c *gin.Context, d *internal.Deps) {
	var data updateBody
	if err := c.ShouldBind(&data); err != nil {
		badBody(c, err)
		return
	}

	sw, _ := middleware.CurrentSession(c)

	u, err := d.Auth.UpdateUser(c.Request.Context(), sw.User.ID, auth.UpdateUserInput{
		Name:  data.Name,
		Image: data.Image,
	})
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}

	// Reissue the cookies so the cookie cache doesn't keep the old user
	d.Sessions.SetCookies(c, &auth.SessionWithUser{Session: sw.Session, User: *u})
	c.JSON(http.StatusOK, u)
}
