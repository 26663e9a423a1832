package controllers

import (
	"errors"
	"log"
	"net/http"

	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
)

// GuardMiddleware rejects a request while another of the same action is running.
func GuardMiddleware(guard *services.ActionGuard, action services.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			release, err := guard.TryAcquire(action)
			if errors.Is(err, services.ErrActionBusy) {
				log.Printf("[Wardrobe] Rejecting concurrent %s request", action)
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Please wait for the current request to finish"})
			}
			defer release()
			return next(c)
		}
	}
}
