package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"selfieapi/languageutil"
	"selfieapi/models"
	"selfieapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const storeNotConfigured = "Cloud storage not configured. Please add database environment variables."

// AssetsController serves the user's saved locations and outfits.
type AssetsController struct {
	Storage    services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
	BucketName string
	Logger     *zap.Logger
}

func (controller *AssetsController) LocationRoutes(g *echo.Group) {
	g.GET("", controller.ListLocations)
	g.POST("", controller.CreateLocation)
	g.DELETE("", controller.DeleteLocation)
}

func (controller *AssetsController) OutfitRoutes(g *echo.Group) {
	g.GET("", controller.ListOutfits)
	g.POST("", controller.CreateOutfit)
	g.DELETE("", controller.DeleteOutfit)
}

func (controller *AssetsController) ListLocations(c echo.Context) error {
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "locations": []models.CustomLocation{}})
	}
	ctx := c.Request().Context()
	var locations []models.CustomLocation
	if err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&locations).Error; err != nil {
		controller.Logger.Warn("listing locations failed", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"success": true, "locations": []models.CustomLocation{}, "error": err.Error()})
	}
	for i := range locations {
		locations[i].Image = services.ResolveImageURL(ctx, controller.URLCache, locations[i].Image)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "locations": locations})
}

func (controller *AssetsController) CreateLocation(c echo.Context) error {
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: storeNotConfigured})
	}
	var req models.CustomAssetIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Image) == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Missing required fields: name and image"})
	}
	ctx := c.Request().Context()
	image, err := controller.storeImage(ctx, "locations", req.Name, req.Image)
	if err != nil {
		controller.Logger.Error("location image upload failed", zap.Error(err))
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Server error", Details: err.Error()})
	}

	location := models.CustomLocation{
		Name:  languageutil.DisplayName(req.Name),
		Image: image,
		City:  assetGroup(req.City),
	}
	if err := db.WithContext(ctx).Create(&location).Error; err != nil {
		controller.Logger.Error("saving location failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Failed to save location"})
	}
	location.Image = services.ResolveImageURL(ctx, controller.URLCache, location.Image)
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"location": location,
		"message":  "Location saved to cloud successfully",
	})
}

func (controller *AssetsController) DeleteLocation(c echo.Context) error {
	return controller.deleteAsset(c, &models.CustomLocation{}, "location")
}

func (controller *AssetsController) ListOutfits(c echo.Context) error {
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "outfits": []models.CustomOutfit{}})
	}
	ctx := c.Request().Context()
	var outfits []models.CustomOutfit
	if err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&outfits).Error; err != nil {
		controller.Logger.Warn("listing outfits failed", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"success": true, "outfits": []models.CustomOutfit{}, "error": err.Error()})
	}
	for i := range outfits {
		outfits[i].Image = services.ResolveImageURL(ctx, controller.URLCache, outfits[i].Image)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "outfits": outfits})
}

func (controller *AssetsController) CreateOutfit(c echo.Context) error {
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: storeNotConfigured})
	}
	var req models.CustomAssetIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Image) == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Missing required fields: name and image"})
	}
	ctx := c.Request().Context()
	image, err := controller.storeImage(ctx, "outfits", req.Name, req.Image)
	if err != nil {
		controller.Logger.Error("outfit image upload failed", zap.Error(err))
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Server error", Details: err.Error()})
	}

	outfit := models.CustomOutfit{
		Name:     languageutil.DisplayName(req.Name),
		Image:    image,
		Category: assetGroup(req.Category),
	}
	if err := db.WithContext(ctx).Create(&outfit).Error; err != nil {
		controller.Logger.Error("saving outfit failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Failed to save outfit"})
	}
	outfit.Image = services.ResolveImageURL(ctx, controller.URLCache, outfit.Image)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"outfit":  outfit,
		"message": "Outfit saved to cloud successfully",
	})
}

func (controller *AssetsController) DeleteOutfit(c echo.Context) error {
	return controller.deleteAsset(c, &models.CustomOutfit{}, "outfit")
}

// deleteAsset removes the row of model identified by ?id=. A missing row is not an error.
func (controller *AssetsController) deleteAsset(c echo.Context, model interface{}, kind string) error {
	label := languageutil.TitleCaser.String(kind)
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: storeNotConfigured})
	}
	rawID := c.QueryParam("id")
	if rawID == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: fmt.Sprintf("Missing %s ID", kind)})
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: fmt.Sprintf("Invalid %s ID", kind)})
	}
	if err := db.WithContext(c.Request().Context()).Delete(model, id).Error; err != nil {
		controller.Logger.Error("deleting asset failed", zap.String("kind", kind), zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: fmt.Sprintf("Failed to delete %s", kind)})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": label + " deleted"})
}

// storeImage uploads inline images to object storage and returns the object key. Links, and inline images
// when storage is not configured, are kept as they are.
func (controller *AssetsController) storeImage(ctx context.Context, folder, name, image string) (string, error) {
	if !services.IsDataURL(image) || controller.Storage == nil || controller.BucketName == "" {
		return image, nil
	}
	decoded, err := services.ParseImage(image)
	if err != nil {
		return "", err
	}
	key := services.AssetObjectKey(folder, languageutil.Slug(name), time.Now())
	return services.UploadImage(ctx, controller.Storage, controller.BucketName, key, decoded.Data)
}

func assetGroup(group string) string {
	if strings.TrimSpace(group) == "" {
		return models.DefaultAssetGroup
	}
	return strings.TrimSpace(group)
}
