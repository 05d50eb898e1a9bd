package connector

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"enrichsync/internal/constants"
	"enrichsync/internal/install"
	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/logging"
)

const installContextKey = "install"

// InstallAuth resolves the calling install from the install headers and
// rejects the request unless the secret matches.
func (h *Handler) InstallAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderInstallID)
		secret := c.GetHeader(constants.HeaderInstallSecret)
		if id == "" || secret == "" {
			h.abort(c, apperrors.ErrUnauthorized.WithDetail("message", "install credentials are required"))
			return
		}

		inst, err := h.installs.Get(c.Request.Context(), id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				h.abort(c, apperrors.ErrUnauthorized.WithDetail("message", "unknown install"))
				return
			}
			h.abort(c, err)
			return
		}

		if !secretMatches(inst.Secret, secret) {
			h.abort(c, apperrors.ErrUnauthorized.WithDetail("message", "install secret mismatch"))
			return
		}

		c.Set(installContextKey, inst)
		c.Request = c.Request.WithContext(logging.WithInstallID(c.Request.Context(), inst.ID))
		c.Next()
	}
}

func secretMatches(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func currentInstall(c *gin.Context) *install.Install {
	v, ok := c.Get(installContextKey)
	if !ok {
		return nil
	}
	inst, _ := v.(*install.Install)
	return inst
}

func (h *Handler) abort(c *gin.Context, err error) {
	h.HandleError(c, err)
	c.Abort()
}
