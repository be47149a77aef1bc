package api

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bizplan/internal/database"
	"bizplan/internal/storage"
)

// AssetHandler manages user-uploaded files (logos, photos) in object storage.
// Every upload is scanned through clamd before it reaches the bucket.
type AssetHandler struct {
	DB        *gorm.DB
	Storage   *storage.Client
	Logger    *slog.Logger
	ClamdAddr string
}

func NewAssetHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *AssetHandler {
	return &AssetHandler{
		DB:        db,
		Storage:   storageClient,
		Logger:    logger,
		ClamdAddr: clamdAddr,
	}
}

// UploadAsset scans the uploaded file and stores it under the user's prefix.
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	clamdClient := clamd.NewClamd(h.ClamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		h.Logger.Error("scan file", slog.String("error", err.Error()))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("user-assets/%d/%s.png", userID, uuid.NewString())
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request.Context()
	if _, err := h.Storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.Logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	asset := database.Asset{UserID: userID, ObjectKey: objectKey}
	if err := h.DB.WithContext(ctx).Create(&asset).Error; err != nil {
		h.Logger.Error("record asset", slog.String("error", err.Error()))
		Internal(c, "failed to record asset")
		return
	}

	Created(c, "asset uploaded", gin.H{"objectKey": objectKey})
}

// ListAssets returns the user's uploads, newest first, with preview URLs.
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	limitStr := c.DefaultQuery("limit", "60")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 60
	}
	if limit > 200 {
		limit = 200
	}

	prefix := fmt.Sprintf("user-assets/%d/", userID)
	objects, err := h.Storage.ListObjects(c.Request.Context(), prefix, limit)
	if err != nil {
		h.Logger.Error("list assets", slog.String("error", err.Error()))
		Internal(c, "failed to list assets")
		return
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		url, err := h.Storage.GeneratePresignedURL(c.Request.Context(), obj.Key, 10*time.Minute)
		if err != nil {
			h.Logger.Error("generate asset url", slog.String("objectKey", obj.Key), slog.String("error", err.Error()))
			continue
		}
		items = append(items, gin.H{
			"objectKey":    obj.Key,
			"previewUrl":   url,
			"size":         obj.Size,
			"lastModified": obj.LastModified,
		})
	}

	OK(c, "assets listed", gin.H{"items": items})
}

// GetAssetURL returns a short-lived presigned URL for one owned asset.
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}

	expectedPrefix := fmt.Sprintf("user-assets/%d/", userID)
	if !strings.HasPrefix(objectKey, expectedPrefix) {
		Forbidden(c, "access denied")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.Logger.Error("generate presigned url", slog.String("error", err.Error()))
		Internal(c, "failed to generate url")
		return
	}

	OK(c, "url generated", gin.H{"url": signedURL})
}

// DeleteAsset removes one owned asset from storage and the index table.
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}

	expectedPrefix := fmt.Sprintf("user-assets/%d/", userID)
	if !strings.HasPrefix(objectKey, expectedPrefix) {
		Forbidden(c, "access denied")
		return
	}

	ctx := c.Request.Context()
	if err := h.Storage.DeleteObject(ctx, objectKey); err != nil {
		h.Logger.Error("delete object", slog.String("error", err.Error()))
		Internal(c, "failed to delete asset")
		return
	}

	if err := h.DB.WithContext(ctx).
		Where("user_id = ? AND object_key = ?", userID, objectKey).
		Delete(&database.Asset{}).Error; err != nil {
		h.Logger.Error("delete asset row", slog.String("error", err.Error()))
		Internal(c, "failed to delete asset")
		return
	}

	OK(c, "asset deleted", nil)
}
