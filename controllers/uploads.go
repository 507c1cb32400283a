package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	dbpkg "corretor/db"
	"corretor/logging"
	"corretor/metrics"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

/************************************************
/**** MARK: UPLOAD PURPOSES ****/
/************************************************/
const UPLOAD_PURPOSE_AVATAR = "avatar"
const UPLOAD_PURPOSE_ATTACHMENT = "attachment"

var imageTypes = []string{"image/jpeg", "image/png", "image/webp"}

func allowedContentTypes(purpose string) []string {
	switch purpose {
	case UPLOAD_PURPOSE_AVATAR:
		return imageTypes
	case UPLOAD_PURPOSE_ATTACHMENT:
		return append(append([]string{}, imageTypes...), "application/pdf")
	}
	return nil
}

func isAllowedContentType(purpose, contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range allowedContentTypes(purpose) {
		if t == mediaType {
			return true
		}
	}
	return false
}

func objectKey(purpose string, userID int64, fileName string) string {
	return fmt.Sprintf("%s/%d/%s-%s", purpose, userID, uuid.NewString(), tools.SafeFileName(fileName))
}

// storageOrAbort responde 503 quando não há bucket configurado.
func storageOrAbort(c *gin.Context) (tools.BlobStorage, bool) {
	if deps.Storage == nil {
		RespondError(c, "armazenamento de arquivos não configurado", http.StatusServiceUnavailable)
		return nil, false
	}
	return deps.Storage, true
}

type PresignRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Purpose     string `json:"purpose"`
}

type PresignResponse struct {
	UploadURL string    `json:"uploadUrl"`
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// POST /api/upload
func PresignUpload(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}
	if req.Purpose == "" {
		req.Purpose = UPLOAD_PURPOSE_AVATAR
	}
	if allowedContentTypes(req.Purpose) == nil {
		RespondError(c, "purpose inválido", http.StatusBadRequest)
		return
	}
	if !isAllowedContentType(req.Purpose, req.ContentType) {
		metrics.Uploads.WithLabelValues(req.Purpose, "rejected").Inc()
		RespondError(c, "tipo de arquivo não permitido", http.StatusUnsupportedMediaType)
		return
	}
	storage, ok := storageOrAbort(c)
	if !ok {
		return
	}

	ttl := time.Duration(deps.Config.Storage.PresignTTLMinutes) * time.Minute
	key := objectKey(req.Purpose, user.ID, req.FileName)
	uploadURL, err := storage.PresignPut(c.Request.Context(), key, req.ContentType, ttl)
	if err != nil {
		metrics.Uploads.WithLabelValues(req.Purpose, "error").Inc()
		logging.L().Error("presign failed", zap.String("key", key), zap.Error(err))
		RespondError(c, "Erro ao gerar URL de upload", http.StatusBadGateway)
		return
	}

	metrics.Uploads.WithLabelValues(req.Purpose, "presigned").Inc()
	RespondSuccess(c, PresignResponse{
		UploadURL: uploadURL,
		URL:       storage.PublicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	})
}

type AttachmentRequest struct {
	URL  string `json:"url" binding:"required"`
	Name string `json:"name" binding:"required"`
	Type string `json:"type"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// POST /api/leads/:id/attachments
func CreateAttachment(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	leadID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}
	// chaves de outro corretor não podem ser registradas
	if req.Key != "" && !strings.HasPrefix(req.Key, fmt.Sprintf("%s/%d/", UPLOAD_PURPOSE_ATTACHMENT, user.ID)) {
		RespondError(c, "key inválida", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	att, err := registerAttachment(db, user.ID, leadID, models.Attachment{
		URL:        req.URL,
		StorageKey: req.Key,
		Name:       req.Name,
		Type:       req.Type,
		Size:       req.Size,
	})
	if errors.Is(err, ErrLeadNotFound) {
		RespondError(c, "Lead não encontrado", http.StatusNotFound)
		return
	} else if err != nil {
		RespondError(c, "Erro ao salvar anexo", http.StatusInternalServerError)
		return
	}
	RespondCreated(c, att)
}

func registerAttachment(db *gorm.DB, userID, leadID int64, att models.Attachment) (models.Attachment, error) {
	lead, err := findOwnedLead(db, userID, leadID)
	if err != nil {
		return att, err
	}
	att.LeadID = lead.ID
	if err := db.Create(&att).Error; err != nil {
		return att, err
	}
	return att, nil
}

// POST /api/leads/:id/attachments/upload (multipart "file")
func UploadAttachment(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	leadID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if _, err := findOwnedLead(db, user.ID, leadID); err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			RespondError(c, "Lead não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao buscar lead", http.StatusInternalServerError)
		return
	}
	storage, ok := storageOrAbort(c)
	if !ok {
		return
	}

	fh, ok := formFileLimited(c, "file", int64(deps.Config.Storage.MaxUploadMB)<<20)
	if !ok {
		metrics.Uploads.WithLabelValues(UPLOAD_PURPOSE_ATTACHMENT, "rejected").Inc()
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if !isAllowedContentType(UPLOAD_PURPOSE_ATTACHMENT, contentType) {
		metrics.Uploads.WithLabelValues(UPLOAD_PURPOSE_ATTACHMENT, "rejected").Inc()
		RespondError(c, "tipo de arquivo não permitido", http.StatusUnsupportedMediaType)
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondError(c, "arquivo inválido", http.StatusBadRequest)
		return
	}
	defer f.Close()

	key := objectKey(UPLOAD_PURPOSE_ATTACHMENT, user.ID, fh.Filename)
	if err := storage.Put(c.Request.Context(), key, contentType, f, fh.Size); err != nil {
		metrics.Uploads.WithLabelValues(UPLOAD_PURPOSE_ATTACHMENT, "error").Inc()
		logging.L().Error("attachment upload failed", zap.String("key", key), zap.Error(err))
		RespondError(c, "Erro ao enviar arquivo", http.StatusBadGateway)
		return
	}

	att, err := registerAttachment(db, user.ID, leadID, models.Attachment{
		URL:        storage.PublicURL(key),
		StorageKey: key,
		Name:       fh.Filename,
		Type:       contentType,
		Size:       fh.Size,
	})
	if err != nil {
		deleteBlobs(c, []string{key})
		RespondError(c, "Erro ao salvar anexo", http.StatusInternalServerError)
		return
	}
	metrics.Uploads.WithLabelValues(UPLOAD_PURPOSE_ATTACHMENT, "uploaded").Inc()
	RespondCreated(c, att)
}

// DELETE /api/attachments/:id
func DeleteAttachment(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var att models.Attachment
	err := db.Table("attachments").
		Select("attachments.*").
		Joins("JOIN leads ON leads.id = attachments.lead_id").
		Where("attachments.id = ? AND leads.user_id = ?", id, user.ID).
		First(&att).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Anexo não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao buscar anexo", http.StatusInternalServerError)
		return
	}
	if err := db.Delete(&att).Error; err != nil {
		RespondError(c, "Erro ao excluir anexo", http.StatusInternalServerError)
		return
	}
	if att.StorageKey != "" {
		deleteBlobs(c, []string{att.StorageKey})
	}
	RespondSuccess(c, gin.H{"success": true})
}

// deleteBlobs remove os objetos do bucket. Falhas só são logadas:
// a linha no banco já foi apagada.
func deleteBlobs(c *gin.Context, keys []string) {
	if len(keys) == 0 || deps.Storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	for _, k := range keys {
		if err := deps.Storage.Delete(ctx, k); err != nil {
			logging.L().Warn("blob delete failed", zap.String("key", k), zap.Error(err))
		}
	}
}
