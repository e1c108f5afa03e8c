package user

import (
	"errors"
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/service"
	"bitwise74/web-starter/pkg/middleware"
	"bitwise74/web-starter/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadAvatar stores the image sent as the avatar form file and points the
// user's image at it
func UploadAvatar(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if d.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Avatar uploads are disabled",
			"requestID": requestID,
		})
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request body size exceeds limit",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No avatar provided",
			"requestID": requestID,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open avatar", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	sw, _ := middleware.CurrentSession(c)

	url, err := d.Avatars.Upload(c.Request.Context(), sw.User.ID, f)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Avatar is too large",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrAvatarUnsupported):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error":     "Avatar must be a png, jpeg, gif or webp image",
				"requestID": requestID,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to upload avatar", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	u, err := d.Auth.UpdateUser(c.Request.Context(), sw.User.ID, auth.UpdateUserInput{Image: &url})
	if err != nil {
		d.Avatars.Remove(c.Request.Context(), sw.User.ID, url)
		respondError(c, err, "Failed to store avatar")
		return
	}

	if old := sw.User.Image; old != nil && *old != url {
		d.Avatars.Remove(c.Request.Context(), sw.User.ID, *old)
	}

	d.Sessions.SetCookies(c, &auth.SessionWithUser{Session: sw.Session, User: *u})

	if to := c.PostForm("redirectTo"); util.IsLocalPath(to) {
		c.Redirect(http.StatusSeeOther, to)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": url})
}
