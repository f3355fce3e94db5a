package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
)

// SiteRoutes are the client-side routes of the single-page app
var SiteRoutes = []string{
	"/",
	"/auth",
	"/admin",
	"/services",
	"/portfolio",
	"/about",
	"/profile",
	"/careers",
	"/privacy-policy",
	"/terms-of-service",
}

const fallbackIndex = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>IntelliAI Labs</title></head>
<body><div id="root"></div></body></html>`

// ServeSite handles GET on every SiteRoutes entry - returns the app shell
func ServeSite(c *gin.Context) {
	serveIndex(c, http.StatusOK)
}

// NotFound is the catch-all: JSON for API paths, the app shell with 404 for everything else
func NotFound(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/functions/") {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "The requested resource was not found",
			},
		})
		return
	}

	serveIndex(c, http.StatusNotFound)
}

// ServeAsset handles GET /assets/*filepath - serves built JS, CSS and images
func ServeAsset(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")

	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Filename is required",
			},
		})
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(name, "..") || strings.Contains(name, "\\") || strings.HasPrefix(name, "/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid filename",
			},
		})
		return
	}

	staticDir := siteDir()
	if staticDir == "" {
		c.Status(http.StatusNotFound)
		return
	}

	filePath := filepath.Join(staticDir, "assets", filepath.FromSlash(name))
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Asset not found",
			},
		})
		return
	}

	// Build output is content-hashed
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.File(filePath)
}

func serveIndex(c *gin.Context, status int) {
	page := []byte(fallbackIndex)
	if staticDir := siteDir(); staticDir != "" {
		if content, err := os.ReadFile(filepath.Join(staticDir, "index.html")); err == nil {
			page = content
		}
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(status, "text/html; charset=utf-8", page)
}

func siteDir() string {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg.StaticDir
	}
	return ""
}
