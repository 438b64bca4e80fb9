package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/persistence"
)

const backupExt = ".bak"

// BackupHandler snapshots and restores the persistence engine.
type BackupHandler struct {
	engine    persistence.Engine
	backupDir string
	now       func() time.Time
}

// BackupInfo describes a backup file.
type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBackupHandler creates a backup handler writing into backupDir.
func NewBackupHandler(engine persistence.Engine, backupDir string) *BackupHandler {
	return &BackupHandler{engine: engine, backupDir: backupDir, now: time.Now}
}

// Create writes a timestamped backup into the backup directory.
func (h *BackupHandler) Create(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	name := fmt.Sprintf("intent-%s%s", h.now().UTC().Format("20060102-150405.000"), backupExt)
	path := filepath.Join(h.backupDir, name)

	if err := h.engine.Backup(path); err != nil {
		log.Error("Failed to create backup", logger.String("path", path), logger.Error(err))
		return middleware.InternalServerError(c, "failed to create backup")
	}

	log.Info("Backup created", logger.String("path", path))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "backup created",
		"name":    name,
	})
}

// List returns the available backups, newest first.
func (h *BackupHandler) List(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.backupDir)
	if err != nil && !os.IsNotExist(err) {
		middleware.GetLogger(c).Error("Failed to list backups", logger.Error(err))
		return middleware.InternalServerError(c, "failed to list backups")
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })

	return c.JSON(fiber.Map{"backups": backups, "count": len(backups)})
}

// Restore loads a named backup from the backup directory.
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return middleware.BadRequest(c, "invalid request body")
	}
	// only plain file names inside the backup directory are accepted
	if body.Name == "" || body.Name != filepath.Base(body.Name) || !strings.HasSuffix(body.Name, backupExt) {
		return middleware.BadRequest(c, "name must be a backup file name")
	}

	path := filepath.Join(h.backupDir, body.Name)
	if _, err := os.Stat(path); err != nil {
		return middleware.NotFound(c, fmt.Sprintf("backup '%s' not found", body.Name))
	}

	if err := h.engine.Restore(path); err != nil {
		log.Error("Failed to restore backup", logger.String("path", path), logger.Error(err))
		return middleware.InternalServerError(c, "failed to restore backup")
	}

	log.Info("Backup restored", logger.String("path", path))
	return c.JSON(fiber.Map{"message": "backup restored", "name": body.Name})
}
