package handler

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const thumbnailWidth = 320

type markdownPreviewPayload struct {
	Source string `json:"source" validate:"required,max=65536"`
}

// UploadScreenshot 处理截图上传：校验类型、uuid 命名、生成缩略图
func (a *API) UploadScreenshot(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondFail(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.respondServiceError(c, "upload_screenshot", err)
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		a.respondServiceError(c, "upload_screenshot", err)
		return
	}

	thumbURL := ""
	if thumbName, err := writeThumbnail(filePath, ext); err == nil && thumbName != "" {
		thumbURL = fmt.Sprintf("%s/%s", a.uploadURL, thumbName)
	}

	fileURL := fmt.Sprintf("%s/%s", a.uploadURL, newFilename)
	respondOK(c, gin.H{
		"url":       fileURL,
		"thumbnail": thumbURL,
	})
}

// PreviewMarkdown 渲染备注 Markdown 为净化后的 HTML
func (a *API) PreviewMarkdown(c *gin.Context) {
	var payload markdownPreviewPayload
	if !bindValidated(c, &payload) {
		return
	}

	html, err := service.RenderMarkdown(payload.Source)
	if err != nil {
		a.respondServiceError(c, "preview_markdown", err)
		return
	}

	respondOK(c, gin.H{"html": html})
}

// writeThumbnail 按等比缩放生成缩略图。
// 不支持解码的格式直接跳过，不视为错误。
func writeThumbnail(filePath, ext string) (string, error) {
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return "", nil
	}

	source, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer source.Close()

	img, _, err := image.Decode(source)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= thumbnailWidth {
		return "", nil
	}

	height := bounds.Dy() * thumbnailWidth / bounds.Dx()
	thumb := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, height))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, bounds, draw.Over, nil)

	thumbName := strings.TrimSuffix(filepath.Base(filePath), ext) + "-thumb" + ext
	out, err := os.Create(filepath.Join(filepath.Dir(filePath), thumbName))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if ext == ".png" {
		if err := png.Encode(out, thumb); err != nil {
			return "", err
		}
		return thumbName, nil
	}

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}
	return thumbName, nil
}
