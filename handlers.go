package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labelscan/models"
	"labelscan/pkg/label"
	"labelscan/pkg/ocr"
	"labelscan/pkg/scanner"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxScanUpload = 8 * 1024 * 1024

func setupRoutes(r *gin.Engine) {
	r.GET("/health", healthHandler)
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/scans", createScanHandler)
	authGroup.POST("/scans/text", parseTextHandler)
	authGroup.GET("/scans", listScansHandler)
	authGroup.GET("/scans/:id", getScanHandler)
	authGroup.POST("/scans/:id/confirm", confirmScanHandler)
	authGroup.GET("/labels", listLabelsHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	role, _ := c.Get("role")
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string), "role": role})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	return role == models.RoleAdministrator
}

// currentScanner falls back to a parse-only scanner when OCR was not set up.
func currentScanner() *scanner.Scanner {
	if labelScanner != nil {
		return labelScanner
	}
	return scanner.New(nil, nil)
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUserExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(user.Username, roleName(user), 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || !rt.Active(time.Now()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(user.Username, roleName(user), 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate: revoke the presented token and issue a new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// parseTextHandler runs the label parser on text recognized elsewhere. Nothing is stored.
func parseTextHandler(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out := currentScanner().ScanText(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"result":     out.Result(),
		"missing":    out.Result().Missing(),
		"candidates": out.Extraction.Candidates,
	})
}

// createScanHandler stores an uploaded label photo, runs OCR and the parser,
// and records the outcome as a Scan.
func createScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxScanUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 8MB)"})
		return
	}
	fullPath := uploadPath(user.ID, file.Filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	mode := scanner.ModeEnhance
	if v := c.PostForm("auto_crop"); v == "1" || strings.EqualFold(v, "true") {
		mode = scanner.ModeAutoCrop
	}
	out, err := scanUpload(c.Request.Context(), currentScanner(), fullPath, mode)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, errUnsupportedImage) {
			msg = errUnsupportedImage.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	scan := models.Scan{
		UserID:      user.ID,
		FileName:    file.Filename,
		StorePath:   filepath.ToSlash(fullPath),
		ContentType: file.Header.Get("Content-Type"),
		RawText:     out.RawText,
	}
	scan.SetResult(out.Result())
	if strings.TrimSpace(out.RawText) == "" {
		scan.Failed = true
		scan.FailedReason = "no text recognized"
	}
	if err := db.Create(&scan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	log.Printf("scan stored id=%d user=%d missing=%d", scan.ID, user.ID, scan.MissingCount)
	c.JSON(http.StatusOK, gin.H{
		"id":       scan.ID,
		"result":   out.Result(),
		"missing":  out.Result().Missing(),
		"raw_text": out.RawText,
	})
}

// listScansHandler returns scans; admin sees all, user only their own.
func listScansHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var scans []models.Scan
	q := db.Model(&models.Scan{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, scans)
}

// loadOwnedScan fetches scan :id and writes the error response when the caller
// may not see it.
func loadOwnedScan(c *gin.Context, user *models.User) (*models.Scan, bool) {
	var scan models.Scan
	if err := db.First(&scan, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	if !isAdmin(c) && scan.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &scan, true
}

// getScanHandler returns single scan if admin or owner.
func getScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	scan, ok := loadOwnedScan(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": scan, "result": scan.Result(), "missing": scan.Result().Missing()})
}

// confirmScanHandler stores the fields exactly as the client confirmed them.
func confirmScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req label.ScanResult
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scan, ok := loadOwnedScan(c, user)
	if !ok {
		return
	}
	if scan.LabelRecordID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "scan already confirmed"})
		return
	}
	rec := models.LabelRecord{
		UserID:      scan.UserID,
		ScanID:      scan.ID,
		StockCode:   deref(req.StockCode),
		SalesOrder:  deref(req.SalesOrder),
		PO:          deref(req.PO),
		Qty:         deref(req.Qty),
		Weight:      deref(req.Weight),
		ConfirmedAt: time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Model(&models.Scan{}).Where("id = ?", scan.ID).Update("label_record_id", rec.ID).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "scan already confirmed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirm failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// listLabelsHandler lists confirmed records; admin sees all.
func listLabelsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.LabelRecord
	q := db.Model(&models.LabelRecord{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

var errUnsupportedImage = errors.New("unsupported image")

// uploadPath names a new upload for userID under UPLOAD_BASE/scans. The same
// path is stored on the scan row so batch tools can find the file again.
func uploadPath(userID uint, original string) string {
	name := fmt.Sprintf("%d_%s_%s", userID, uuid.NewString(), filepath.Base(original))
	return filepath.Join(uploadBaseDir(), "scans", name)
}

// scanUpload decodes and scans a saved upload. The file is removed when either
// step fails, so only scanned uploads stay on disk.
func scanUpload(ctx context.Context, sc *scanner.Scanner, path string, mode scanner.Mode) (out scanner.Outcome, err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	img, err := ocr.Open(path)
	if err != nil {
		return scanner.Outcome{}, fmt.Errorf("%w: %v", errUnsupportedImage, err)
	}
	return sc.ScanImage(ctx, img, mode)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
