package handler

import (
	"github.com/labstack/echo/v4"
)

// errorJSON sends the error envelope all handlers share
func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
