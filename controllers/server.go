package controllers

import (
	"net/http"

	"wardrobeapi/models"
	"wardrobeapi/repository"
	"wardrobeapi/services"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("season", models.ValidateSeason)
	return &CustomValidator{validator: v}
}

// App bundles everything the HTTP handlers work with.
type App struct {
	Items   *repository.ItemRepository
	Outfits *repository.OutfitRepository
	Stylist *services.Stylist
	Images  services.ImageStore
	Guard   *services.ActionGuard

	// JWTSecret enables bearer auth on /api when set.
	JWTSecret         string
	MaxImageDimension int
	MaxImageBytes     int64
}

func SetupServer(app App) *echo.Echo {
	if app.Guard == nil {
		app.Guard = services.NewActionGuard()
	}
	if app.Images == nil {
		app.Images = services.InlineImageStore{}
	}

	e := echo.New()
	e.Validator = NewValidator()

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if app.MaxImageBytes > 0 {
		// base64 inflates uploads by a third
		e.Use(middleware.BodyLimit(bodyLimit(app.MaxImageBytes*4/3 + 64*1024)))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")
	if app.JWTSecret != "" {
		api.Use(echojwt.JWT([]byte(app.JWTSecret)))
	}

	items := ItemsController{App: app}
	items.ItemRoutes(api.Group("/items"))

	outfits := OutfitsController{App: app}
	outfits.OutfitRoutes(api.Group("/outfits"))

	chat := ChatController{App: app}
	chat.ChatRoutes(api.Group("/chat"))

	return e
}
