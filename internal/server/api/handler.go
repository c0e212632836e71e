package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pathQuery struct {
	Path string `form:"path" binding:"required"`
}

type createFolderRequest struct {
	Path string `json:"path" binding:"required"`
}

type deleteFolderRequest struct {
	Path  string `json:"path" binding:"required"`
	Depth int    `json:"depth" binding:"min=0"`
}

type uploadRequest struct {
	Folder   string `json:"folder" binding:"required"`
	Filename string `json:"filename" binding:"required"`
	// Content arrives base64-encoded.
	Content []byte `json:"content"`
}

type shareRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

func (h *handlers) health(c *gin.Context) {
	if err := h.Meta.Ping(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "metadata_store": "ok"})
}

func (h *handlers) listFolder(c *gin.Context) {
	var q pathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	listing, err := h.Namespace.List(c.Request.Context(), userID(c), q.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *handlers) folderExists(c *gin.Context) {
	var q pathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	id, ok, err := h.Namespace.FolderExists(c.Request.Context(), userID(c), q.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "folder_id": id})
}

func (h *handlers) createFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	f, err := h.Namespace.CreateFolder(c.Request.Context(), userID(c), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"folder_id": f.ID, "path": f.Path})
}

func (h *handlers) deleteFolder(c *gin.Context) {
	var req deleteFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Cascade.Delete(c.Request.Context(), userID(c), req.Path, req.Depth)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"path":            res.Path,
		"folders_deleted": res.FoldersDeleted,
		"files_deleted":   res.FilesDeleted,
	})
}

func (h *handlers) uploadFile(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Uploads.Upload(c.Request.Context(), userID(c), req.Folder, req.Filename, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "file uploaded",
		"key":     res.Key,
		"file_id": res.FileID,
	})
}

func (h *handlers) deleteFile(c *gin.Context) {
	if _, err := h.Namespace.DeleteFile(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "file deleted"})
}

func (h *handlers) issueShare(c *gin.Context) {
	var req shareRequest
	// the body is optional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	issued, err := h.Shares.Issue(c.Request.Context(), userID(c), c.Param("id"), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issued)
}

func (h *handlers) download(c *gin.Context) {
	url, err := h.Shares.Download(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

func (h *handlers) redeemShare(c *gin.Context) {
	url, err := h.Shares.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}
